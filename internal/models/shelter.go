package models

// Category identifies a group of shelters that share a marker icon
type Category string

// DefaultCategory is the placeholder key of the checkbox list. It never renders markers.
const DefaultCategory Category = "default"

// ShelterRecord represents a single named shelter location
type ShelterRecord struct {
	ID        int64    `json:"id,omitempty" db:"osm_id"` // OSM element id, 0 when unknown
	Category  Category `json:"category" db:"category"`
	Name      string   `json:"name" db:"name"`
	Latitude  float64  `json:"latitude" db:"latitude"`
	Longitude float64  `json:"longitude" db:"longitude"`
}

// Dataset is the immutable set of shelters loaded at startup.
// Categories keeps the key order of the source document.
type Dataset struct {
	Categories []Category
	Records    map[Category][]ShelterRecord
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{Records: make(map[Category][]ShelterRecord)}
}

// Add appends a record, registering its category on first sight
func (d *Dataset) Add(rec ShelterRecord) {
	d.AddCategory(rec.Category)
	d.Records[rec.Category] = append(d.Records[rec.Category], rec)
}

// AddCategory registers a category without records
func (d *Dataset) AddCategory(c Category) {
	if _, ok := d.Records[c]; ok {
		return
	}
	d.Categories = append(d.Categories, c)
	d.Records[c] = nil
}

// Has reports whether the category is part of the dataset
func (d *Dataset) Has(c Category) bool {
	_, ok := d.Records[c]
	return ok
}

// Count returns the total number of records
func (d *Dataset) Count() int {
	n := 0
	for _, recs := range d.Records {
		n += len(recs)
	}
	return n
}

// LoadWarning describes a record or category skipped while loading a dataset
type LoadWarning struct {
	Category Category `json:"category"`
	Index    int      `json:"index"` // Position inside the category array, -1 for the whole category
	Name     string   `json:"name,omitempty"`
	Reason   string   `json:"reason"`
}

// LoadReport summarises a dataset load
type LoadReport struct {
	Loaded   int           `json:"loaded"`
	Skipped  int           `json:"skipped"`
	Warnings []LoadWarning `json:"warnings,omitempty"`
}

// Warn records a skipped record
func (r *LoadReport) Warn(w LoadWarning) {
	r.Skipped++
	r.Warnings = append(r.Warnings, w)
}

// CategorySummary is the checkbox-list view of a category
type CategorySummary struct {
	Name    Category `json:"name"`
	Count   int      `json:"count"`
	Visible bool     `json:"visible"`
	Icon    string   `json:"icon"`
}
