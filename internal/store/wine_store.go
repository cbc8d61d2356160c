// Package store implements the inventory data-access layer: CRUD over the
// wines table, the image reference-count rules, and the read-side
// statistics.
package store

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"wine-service/internal/imagestore"
	"wine-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WineStore provides access to the wines table. Image files follow their
// owning records: replaced on edit, copied on duplicate, and physically
// deleted only when no other record references them.
type WineStore struct {
	db     *gorm.DB
	images *imagestore.Store
}

// NewWineStore creates a WineStore over a database handle and image store.
func NewWineStore(db *gorm.DB, images *imagestore.Store) *WineStore {
	return &WineStore{db: db, images: images}
}

// Filter narrows List results. Query matches name, region or notes as a
// case-insensitive substring; Type is an exact match.
type Filter struct {
	Query        string
	Type         string
	IncludeEmpty bool
}

// List returns wines matching the filter, ordered by type, name, year.
func (s *WineStore) List(f Filter) ([]model.Wine, error) {
	tx := s.db.Model(&model.Wine{})

	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("name ILIKE ? OR region ILIKE ? OR notes ILIKE ?", like, like, like)
	}
	if f.Type != "" {
		tx = tx.Where("type = ?", f.Type)
	}
	if !f.IncludeEmpty {
		tx = tx.Where("quantity > 0")
	}

	var wines []model.Wine
	if err := tx.Order("type, name, year").Find(&wines).Error; err != nil {
		return nil, err
	}
	return wines, nil
}

// Get returns a single wine by id.
func (s *WineStore) Get(id uint) (*model.Wine, error) {
	var wine model.Wine
	if err := s.db.First(&wine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wine, nil
}

// Create validates and coerces the form, then inserts a new record dated
// today. image is an already-saved upload filename, or empty.
func (s *WineStore) Create(form *model.WineForm, image string) (*model.Wine, error) {
	wine := &model.Wine{}
	if err := applyForm(wine, form, 1); err != nil {
		return nil, err
	}
	wine.Image = image
	wine.Added = today()

	if err := s.db.Create(wine).Error; err != nil {
		return nil, err
	}
	return wine, nil
}

// Update applies the form to an existing record. A non-empty newImage
// replaces the old one, whose file is deleted unless another record still
// references it. The added date never changes.
func (s *WineStore) Update(id uint, form *model.WineForm, newImage string) (*model.Wine, error) {
	wine, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := applyForm(wine, form, 0); err != nil {
		return nil, err
	}

	if newImage != "" {
		if wine.Image != "" {
			s.removeImageIfUnreferenced(wine.Image, id)
		}
		wine.Image = newImage
	}

	if err := s.db.Save(wine).Error; err != nil {
		return nil, err
	}
	return wine, nil
}

// Duplicate inserts a copy of a record under a fresh id and added date.
// yearOverride and quantityOverride replace the source values when given.
// The image file is copied so the new record owns it independently.
func (s *WineStore) Duplicate(id uint, yearOverride, quantityOverride string) (*model.Wine, error) {
	src, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.ID = 0
	dup.Added = today()

	if v := strings.TrimSpace(yearOverride); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ValidationError{Field: "year", Reason: "must be a number"}
		}
		dup.Year = &year
	}
	if v := strings.TrimSpace(quantityOverride); v != "" {
		qty, err := strconv.Atoi(v)
		if err != nil || qty < 0 {
			return nil, &ValidationError{Field: "quantity", Reason: "must be a non-negative number"}
		}
		dup.Quantity = qty
	}

	dup.Image = ""
	if src.Image != "" && s.images != nil {
		if copied, err := s.images.Copy(src.Image); err == nil {
			dup.Image = copied
		}
	}

	if err := s.db.Create(&dup).Error; err != nil {
		return nil, err
	}
	return &dup, nil
}

// Delete removes a record. Its image file goes too, unless another record
// still references the same filename. Deleting a missing id yields
// ErrNotFound, never a crash.
func (s *WineStore) Delete(id uint) (uint, error) {
	wine, err := s.Get(id)
	if err != nil {
		return 0, err
	}

	// The reference count runs before the row disappears; the query
	// excludes this id explicitly.
	if wine.Image != "" {
		s.removeImageIfUnreferenced(wine.Image, id)
	}

	if err := s.db.Delete(&model.Wine{}, id).Error; err != nil {
		return 0, err
	}
	return id, nil
}

// ImageRefCount counts records other than excludingID that reference a
// stored image filename.
func (s *WineStore) ImageRefCount(filename string, excludingID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.Wine{}).
		Where("image = ? AND id != ?", filename, excludingID).
		Count(&count).Error
	return count, err
}

func (s *WineStore) removeImageIfUnreferenced(filename string, excludingID uint) {
	count, err := s.ImageRefCount(filename, excludingID)
	if err != nil || count > 0 {
		return
	}
	if s.images != nil {
		// Already-absent files are not an error.
		_ = s.images.Remove(filename)
	}
}

// DistinctTypes returns the types actually present, for filter tabs.
func (s *WineStore) DistinctTypes() ([]string, error) {
	return s.distinct("type")
}

// DistinctLocations returns stored locations, for autocomplete.
func (s *WineStore) DistinctLocations() ([]string, error) {
	return s.distinct("location")
}

// DistinctGrapes returns stored grape varieties, for autocomplete.
func (s *WineStore) DistinctGrapes() ([]string, error) {
	return s.distinct("grape")
}

func (s *WineStore) distinct(column string) ([]string, error) {
	var values []string
	err := s.db.Model(&model.Wine{}).
		Distinct(column).
		Where(column+" IS NOT NULL AND "+column+" != ''").
		Order(column).
		Pluck(column, &values).Error
	return values, err
}

// applyForm coerces raw form values onto a record. defaultQty distinguishes
// create (1) from edit (0) when the quantity field is blank.
func applyForm(wine *model.Wine, form *model.WineForm, defaultQty int) error {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	wine.Name = name
	wine.Type = strings.TrimSpace(form.Type)
	wine.Region = strings.TrimSpace(form.Region)
	wine.Notes = strings.TrimSpace(form.Notes)

	qty, err := parseIntDefault(form.Quantity, defaultQty)
	if err != nil || qty < 0 {
		return &ValidationError{Field: "quantity", Reason: "must be a non-negative number"}
	}
	wine.Quantity = qty

	rating, err := parseIntDefault(form.Rating, 0)
	if err != nil {
		return &ValidationError{Field: "rating", Reason: "must be a number"}
	}
	wine.Rating = rating

	if wine.Year, err = parseIntPtr(form.Year); err != nil {
		return &ValidationError{Field: "year", Reason: "must be a number"}
	}
	if wine.DrinkFrom, err = parseIntPtr(form.DrinkFrom); err != nil {
		return &ValidationError{Field: "drink_from", Reason: "must be a number"}
	}
	if wine.DrinkUntil, err = parseIntPtr(form.DrinkUntil); err != nil {
		return &ValidationError{Field: "drink_until", Reason: "must be a number"}
	}

	if price := strings.TrimSpace(form.Price); price != "" {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return &ValidationError{Field: "price", Reason: "must be a number"}
		}
		wine.Price = decimal.NewNullDecimal(d)
	} else {
		wine.Price = decimal.NullDecimal{}
	}

	wine.PurchasedAt = trimPtr(form.PurchasedAt)
	wine.Location = trimPtr(form.Location)
	wine.Grape = trimPtr(form.Grape)
	return nil
}

func parseIntDefault(raw string, def int) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func parseIntPtr(raw string) (*int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func trimPtr(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
