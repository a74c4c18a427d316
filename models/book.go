package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book statuses.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Book is one catalog record. Field names follow the existing "bulkimports" documents so stored data keeps
// decoding.
type Book struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ISBN            string             `bson:"ISBN" json:"ISBN"`
	Format          string             `bson:"format,omitempty" json:"format,omitempty"`
	Title           string             `bson:"title" json:"title"`
	Authors         []string           `bson:"authors" json:"authors"`
	Categories      []string           `bson:"categories" json:"categories"`
	Publisher       string             `bson:"publisher,omitempty" json:"publisher,omitempty"`
	Language        string             `bson:"language,omitempty" json:"language,omitempty"`
	Pages           int                `bson:"pages" json:"pages"`
	ISBN10ASINSKU   string             `bson:"ISBN10_ASIN_SKU,omitempty" json:"ISBN10_ASIN_SKU,omitempty"`
	ReleaseDate     *time.Time         `bson:"releaseDate" json:"releaseDate"`
	Weight          string             `bson:"weight,omitempty" json:"weight,omitempty"`
	Dimensions      string             `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	Reviews         int                `bson:"reviews" json:"reviews"`
	SeriesName      string             `bson:"seriesName,omitempty" json:"seriesName,omitempty"`
	CurrencyName    string             `bson:"currencyName,omitempty" json:"currencyName,omitempty"`
	Price           float64            `bson:"price" json:"price"`
	SellingPrice    float64            `bson:"sellingPrice" json:"sellingPrice"`
	AboutTheBook    string             `bson:"aboutTheBook,omitempty" json:"aboutTheBook,omitempty"`
	AboutTheAuthor  string             `bson:"aboutTheAuthor,omitempty" json:"aboutTheAuthor,omitempty"`
	SampleChapters  string             `bson:"sampleChapters,omitempty" json:"sampleChapters,omitempty"`
	RelatedKeywords []string           `bson:"relatedKeywords" json:"relatedKeywords"`
	RelatedSearches []string           `bson:"relatedSearches" json:"relatedSearches"`
	ImageLinks      []string           `bson:"imageLinks" json:"imageLinks"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Normalize enforces the record invariants that do not depend on the input source: list fields hold no
// blank entries and are never nil, status falls back to Active.
func (b *Book) Normalize() {
	b.ISBN = strings.TrimSpace(b.ISBN)
	b.Title = strings.TrimSpace(b.Title)
	b.Authors = CleanList(b.Authors)
	b.Categories = CleanList(b.Categories)
	b.RelatedKeywords = CleanList(b.RelatedKeywords)
	b.RelatedSearches = CleanList(b.RelatedSearches)
	b.ImageLinks = CleanList(b.ImageLinks)
	if s, ok := ParseBookStatus(b.Status); ok {
		b.Status = s
	} else if strings.TrimSpace(b.Status) == "" {
		b.Status = StatusActive
	}
	if b.Pages < 0 {
		b.Pages = 0
	}
	if b.Reviews < 0 {
		b.Reviews = 0
	}
}

// Validate checks a normalized record before it is written.
func (b Book) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ISBN, validation.Required),
		validation.Field(&b.Title, validation.Required),
		validation.Field(&b.Status, validation.Required, validation.In(StatusActive, StatusInactive)),
		validation.Field(&b.Price, validation.Min(0.0)),
		validation.Field(&b.SellingPrice, validation.Min(0.0)),
	)
}

// ParseBookStatus accepts "active"/"inactive" in any case.
func ParseBookStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive, true
	case "inactive":
		return StatusInactive, true
	}
	return "", false
}

// CleanList trims every entry and drops blanks and repeats, keeping first-seen order. It always returns a
// non-nil slice so documents store [] rather than null.
func CleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// SplitList splits a comma-separated cell into a cleaned list.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return CleanList(strings.Split(s, ","))
}
