package domain

import (
	"bytes"
	"context"
	"io"
	"math"

	"github.com/goccy/go-json"
)

// --- Interfaces ---

// CatalogSource yields the raw JSON catalog feed. It is read once per page
// session and treated as immutable afterwards.
type CatalogSource interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// Product is a catalog record. The cart keeps its own copy once added.
type Product struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	Price            float64           `json:"price"`
	Discount         bool              `json:"discount"`
	DiscountPercent  int               `json:"discountPercent"`
	InStock          bool              `json:"inStock"`
	BestSeller       bool              `json:"bestSeller,omitempty"`
	Category         string            `json:"category,omitempty"`
	ImageSrc         string            `json:"imageSrc,omitempty"`
	Thumbnail        string            `json:"thumbnail,omitempty"`
	Images           []string          `json:"images,omitempty"`
	ShortDescription string            `json:"shortDescription,omitempty"`
	Informations     TextBlock         `json:"informations,omitempty"`
	AdditionalInfo   map[string]string `json:"additionalInfo,omitempty"`
	Types            []ProductType     `json:"types,omitempty"`
}

// ProductType is a purchasable variation ("250ml", "Lavanda"...). A nil Price
// means the product's own price applies.
type ProductType struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
}

// UnmarshalJSON accepts both the bare string and the {name, price} form.
func (t *ProductType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*t = ProductType{Name: name}
		return nil
	}
	type plain ProductType
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = ProductType(p)
	return nil
}

// TextBlock is free text that the feed ships either as one string or as a
// list of lines.
type TextBlock []string

func (b *TextBlock) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = TextBlock{s}
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*b = lines
	return nil
}

// Validate rejects records that would poison pricing math.
func (p Product) Validate() error {
	if p.ID <= 0 {
		return NewInvalidProductError("id", "must be positive", p.ID)
	}
	if p.Name == "" {
		return NewInvalidProductError("name", "cannot be empty", p.Name)
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return NewInvalidProductError("price", "must be finite", p.Price)
	}
	if p.Price < 0 {
		return NewInvalidProductError("price", "must be non-negative", p.Price)
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return NewInvalidProductError("discountPercent", "must be within 0-100", p.DiscountPercent)
	}
	for _, t := range p.Types {
		if t.Price == nil {
			continue
		}
		if math.IsNaN(*t.Price) || math.IsInf(*t.Price, 0) || *t.Price < 0 {
			return NewInvalidProductError("types.price", "must be finite and non-negative", *t.Price)
		}
	}
	return nil
}

// CategoryCount feeds the catalog filter list.
type CategoryCount struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	Count       int    `json:"count"`
}

type ProductFilter struct {
	Category string
	Page     int
	Limit    int
}

// HomeTab selects one of the home page product grids.
type HomeTab string

const (
	HomeTabBestseller HomeTab = "bestseller"
	HomeTabNew        HomeTab = "new"
	HomeTabSets       HomeTab = "sets"
)

func (t HomeTab) Valid() bool {
	switch t {
	case HomeTabBestseller, HomeTabNew, HomeTabSets:
		return true
	}
	return false
}
