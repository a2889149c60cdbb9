package products

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrDuplicateSlug   = errors.New("slug already exists")
	ErrInvalidCategory = errors.New("invalid product category")
	ErrInvalidProduct  = errors.New("invalid product")
)

type Category string

const (
	CategoryInhaler   Category = "inhaler"
	CategoryAccessory Category = "accessory"
)

func (c Category) Valid() bool {
	return c == CategoryInhaler || c == CategoryAccessory
}

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Category    Category  `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	Colors      []string  `json:"colors"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter narrows List. The zero value lists active products of every category.
type Filter struct {
	Category        Category
	IncludeInactive bool
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	hexColor    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Slugify lower-cases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// Normalize fills the slug from the name when it is empty, upper-cases the
// colour swatches and checks the invariants the repository relies on.
func (p *Product) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidProduct)
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.Slug == "" {
		return fmt.Errorf("%w: slug cannot be empty", ErrInvalidProduct)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, p.Category)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	}
	for i, c := range p.Colors {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("%w: colour %q is not #RRGGBB", ErrInvalidProduct, c)
		}
		p.Colors[i] = strings.ToUpper(c)
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	return nil
}
