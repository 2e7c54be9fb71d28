package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Relation names reported in ProductDetail.Unavailable.
const (
	RelationCategory = "category"
	RelationBrand    = "brand"
	RelationVendor   = "vendor"
	RelationTax      = "tax"
)

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// Vendor is also read by checkout for order metadata.
type Vendor struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
}

type Tax struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// ProductSummary is one row of the product listing.
type ProductSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug,omitempty"`
	Price           int64     `json:"price"`
	SalePrice       *int64    `json:"salePrice,omitempty"`
	DiscountPercent int       `json:"discountPercent"`
	FreeShipping    bool      `json:"freeShipping"`
	Image           string    `json:"image,omitempty"`
	CategoryID      string    `json:"categoryId,omitempty"`
	VendorID        string    `json:"vendorId,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	InStock         bool      `json:"inStock"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ProductList = pagination.Page[ProductSummary]

// ProductDetail carries the product with its related records. A relation
// that could not be loaded is nil and listed in Unavailable.
type ProductDetail struct {
	ProductSummary
	Description string    `json:"description,omitempty"`
	Sizes       []string  `json:"sizes"`
	Colors      []string  `json:"colors"`
	Images      []string  `json:"images"`
	Stock       int       `json:"stock"`
	Category    *Category `json:"category"`
	Brand       *Brand    `json:"brand"`
	Vendor      *Vendor   `json:"vendor"`
	Tax         *Tax      `json:"tax"`
	Unavailable []string  `json:"unavailable,omitempty"`
}

// ProductFilter narrows the product listing.
type ProductFilter struct {
	CategoryID   string
	Gender       string
	VendorID     string
	MinDiscount  int
	FreeShipping bool
}

func summaryFromModel(p models.Product) ProductSummary {
	s := ProductSummary{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		Price:           p.Price,
		SalePrice:       p.SalePrice,
		DiscountPercent: p.DiscountPercent,
		FreeShipping:    p.FreeShipping,
		CategoryID:      deref(p.CategoryID),
		VendorID:        deref(p.VendorID),
		Gender:          deref(p.Gender),
		InStock:         p.Stock > 0,
		CreatedAt:       p.CreatedAt,
	}
	if len(p.Images) > 0 {
		s.Image = p.Images[0]
	}
	return s
}

func detailFromModel(p models.Product) *ProductDetail {
	return &ProductDetail{
		ProductSummary: summaryFromModel(p),
		Description:    deref(p.Description),
		Sizes:          nonNil(p.Sizes),
		Colors:         nonNil(p.Colors),
		Images:         nonNil(p.Images),
		Stock:          p.Stock,
	}
}

func categoryFromModel(m models.Category) *Category {
	return &Category{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: deref(m.Description),
		Image:       deref(m.Image),
	}
}

func brandFromModel(m models.Brand) *Brand {
	return &Brand{ID: m.ID, Name: m.Name, Logo: deref(m.Logo)}
}

func vendorFromModel(m models.Vendor) *Vendor {
	return &Vendor{
		ID:             m.ID,
		Name:           m.Name,
		Email:          deref(m.Email),
		Phone:          deref(m.Phone),
		CommissionRate: m.CommissionRate,
	}
}

func taxFromModel(m models.Tax) *Tax {
	return &Tax{ID: m.ID, Name: m.Name, Rate: m.Rate}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
