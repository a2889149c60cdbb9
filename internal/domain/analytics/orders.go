package analytics

import "aerokit/internal/domain/orders"

func PointsFromOrders(list []orders.Order) []Point {
	points := make([]Point, len(list))
	for i, o := range list {
		points[i] = Point{
			CreatedAt:  o.CreatedAt,
			TotalCents: o.TotalCents,
			Cancelled:  o.Status == orders.StatusCancelled,
		}
	}
	return points
}
