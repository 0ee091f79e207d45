package domain

import (
	"strings"
	"time"
)

type Product struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	Price       int64     `db:"price" json:"price"`
	ImageUrl    string    `db:"image_url" json:"imageUrl"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateProductInput struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	Price          int64  `json:"price" validate:"required,gt=0"`
	ImageUrl       string `json:"imageUrl"`
	Category       string `json:"category"`
	QuantityL      int64  `json:"quantityL" validate:"gte=0"`
	QuantityM      int64  `json:"quantityM" validate:"gte=0"`
	QuantityS      int64  `json:"quantityS" validate:"gte=0"`
	StockThreshold int64  `json:"stockThreshold" validate:"gte=0"`
}

type UpdateProductInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	ImageUrl    *string `json:"imageUrl"`
	Category    *string `json:"category"`
}

// Slugify builds a url friendly identifier from a product name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")

	var b strings.Builder
	for _, r := range slug {
		if r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}
