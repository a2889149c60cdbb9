package main

import (
	"fmt"
	"net/http"
	"time"

	"aerokit/internal/domain/analytics"
)

// defaultSpan is how far back a report reaches when from is omitted.
var defaultSpan = map[analytics.Window]func(time.Time) time.Time{
	analytics.WindowDay:   func(t time.Time) time.Time { return t.AddDate(0, 0, -30) },
	analytics.WindowWeek:  func(t time.Time) time.Time { return t.AddDate(0, 0, -7*12) },
	analytics.WindowMonth: func(t time.Time) time.Time { return t.AddDate(0, -12, 0) },
}

// ownerAnalyticsHandler godoc
//
//	@Summary		Sales analytics
//	@Description	Buckets orders by day, week (Monday start) or month in UTC. Empty buckets are included and cancelled orders carry no revenue.
//	@Tags			owner
//	@Produce		json
//	@Param			window	query		string	false	"day, week or month"	default(day)
//	@Param			from	query		string	false	"RFC3339 time or YYYY-MM-DD"
//	@Param			to		query		string	false	"RFC3339 time or YYYY-MM-DD, exclusive"
//	@Success		200		{object}	analytics.Report
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/owner/analytics [get]
func (app *application) ownerAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window, err := analytics.ParseWindow(q.Get("window"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	to := window.Next(window.Truncate(app.now()))
	if raw := q.Get("to"); raw != "" {
		if to, err = parseInstant(raw); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}
	from := window.Truncate(defaultSpan[window](to))
	if raw := q.Get("from"); raw != "" {
		if from, err = parseInstant(raw); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	if err := analytics.CheckRange(window, from, to); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, err := app.store.Orders.ListBetween(r.Context(), from, to)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	report, err := analytics.Aggregate(analytics.PointsFromOrders(list), window, from, to)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, report); err != nil {
		app.internalServerError(w, r, err)
	}
}

func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want RFC3339 or YYYY-MM-DD", raw)
}
