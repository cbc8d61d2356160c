package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WineTypes is the closed set of category labels a wine may carry. The
// storage layer does not enforce it; input boundaries do.
var WineTypes = []string{"Red", "White", "Rosé", "Sparkling", "Dessert", "Other"}

// IsWineType reports whether t is one of the allowed category labels.
func IsWineType(t string) bool {
	for _, wt := range WineTypes {
		if wt == t {
			return true
		}
	}
	return false
}

// Wine represents one tracked bottle/lot in the cellar. Quantity zero means
// consumed but kept for history; records are removed only by explicit delete.
type Wine struct {
	ID       uint   `json:"id" gorm:"primarykey"`
	Name     string `json:"name" gorm:"type:varchar(255);not null"`
	Year     *int   `json:"year"`
	Type     string `json:"type" gorm:"type:varchar(50)"`
	Region   string `json:"region" gorm:"type:varchar(255)"`
	// Quantity and rating defaults live in the input coercion, not the
	// schema, so an explicit zero is stored as zero.
	Quantity int `json:"quantity"`
	Rating   int `json:"rating"`
	Notes    string `json:"notes" gorm:"type:text"`
	// Image is the owned upload filename; empty when no label photo exists.
	Image string    `json:"image" gorm:"type:varchar(255)"`
	Added time.Time `json:"added" gorm:"type:date"`

	PurchasedAt *string             `json:"purchased_at" gorm:"type:varchar(32)"`
	Price       decimal.NullDecimal `json:"price" gorm:"type:numeric(12,2)"`
	DrinkFrom   *int                `json:"drink_from"`
	DrinkUntil  *int                `json:"drink_until"`
	Location    *string             `json:"location" gorm:"type:varchar(255)"`
	Grape       *string             `json:"grape" gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM.
func (Wine) TableName() string {
	return "wines"
}

// WineForm carries the raw editable attributes of a wine as submitted by a
// multipart form. Numeric fields stay strings here; the store coerces them
// and rejects bad input.
type WineForm struct {
	Name        string `form:"name" validate:"required"`
	Year        string `form:"year"`
	Type        string `form:"type"`
	Region      string `form:"region"`
	Quantity    string `form:"quantity"`
	Rating      string `form:"rating"`
	Notes       string `form:"notes"`
	PurchasedAt string `form:"purchased_at"`
	Price       string `form:"price"`
	DrinkFrom   string `form:"drink_from"`
	DrinkUntil  string `form:"drink_until"`
	Location    string `form:"location"`
	Grape       string `form:"grape"`
}
