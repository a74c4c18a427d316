// Package query turns catalog listing parameters into MongoDB filter and sort documents.
package query

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kevinaaaquil/bookstore/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxLimit = 100

// Params are the listing parameters shared by the catalog endpoints.
type Params struct {
	Search   string
	Format   string
	Language string
	Category string
	Sort     string
	Page     int
	Limit    int
	// ActiveOnly restricts results to status Active (public browse endpoints).
	ActiveOnly bool
}

// Sort is a single sort field and direction (1 ascending, -1 descending).
type Sort struct {
	Field     string
	Direction int
}

var (
	ByCreatedDesc = Sort{Field: "createdAt", Direction: -1}
	ByReleaseDesc = Sort{Field: "releaseDate", Direction: -1}
)

var sortKeys = map[string]Sort{
	"mostPopular":    {Field: "reviews", Direction: -1},
	"most-popular":   {Field: "reviews", Direction: -1},
	"mostReviews":    {Field: "reviews", Direction: -1},
	"most-reviews":   {Field: "reviews", Direction: -1},
	"best-rated":     {Field: "reviews", Direction: -1},
	"justListed":     ByCreatedDesc,
	"just-listed":    ByCreatedDesc,
	"titleAZ":        {Field: "title", Direction: 1},
	"title-a-z":      {Field: "title", Direction: 1},
	"titleZA":        {Field: "title", Direction: -1},
	"title-z-a":      {Field: "title", Direction: -1},
	"priceLowHigh":   {Field: "price", Direction: 1},
	"price-low-high": {Field: "price", Direction: 1},
	"priceHighLow":   {Field: "price", Direction: -1},
	"price-high-low": {Field: "price", Direction: -1},
	"release-date":   ByReleaseDesc,
	"new-releases":   ByReleaseDesc,
}

// ResolveSort maps a named sort key; unknown or empty keys give def.
func ResolveSort(key string, def Sort) Sort {
	if s, ok := sortKeys[strings.TrimSpace(key)]; ok {
		return s
	}
	return def
}

// SortDoc returns the sort document with _id as tie-breaker so pages stay stable.
func (s Sort) SortDoc() bson.D {
	d := bson.D{{Key: s.Field, Value: s.Direction}}
	if s.Field != "_id" {
		d = append(d, bson.E{Key: "_id", Value: s.Direction})
	}
	return d
}

// Filter builds the AND of all present constraints. An empty Params yields an empty filter.
func (p Params) Filter() bson.D {
	var and bson.A
	if term := strings.TrimSpace(p.Search); term != "" {
		re := containsRegex(term)
		and = append(and, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "authors", Value: re}},
			bson.D{{Key: "categories", Value: re}},
			bson.D{{Key: "publisher", Value: re}},
			bson.D{{Key: "ISBN", Value: re}},
		}}})
	}
	if v := strings.TrimSpace(p.Format); v != "" {
		and = append(and, bson.D{{Key: "format", Value: v}})
	}
	if v := strings.TrimSpace(p.Language); v != "" {
		and = append(and, bson.D{{Key: "language", Value: v}})
	}
	if v := strings.TrimSpace(p.Category); v != "" {
		and = append(and, bson.D{{Key: "categories", Value: containsRegex(v)}})
	}
	if p.ActiveOnly {
		and = append(and, bson.D{{Key: "status", Value: models.StatusActive}})
	}
	switch len(and) {
	case 0:
		return bson.D{}
	case 1:
		return and[0].(bson.D)
	}
	return bson.D{{Key: "$and", Value: and}}
}

// Skip is the number of documents before the requested page.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// FromValues reads page, limit and the filter fields from a query string. sortParam names the sort query key
// ("sort" or "sortBy" depending on the endpoint).
func FromValues(v url.Values, sortParam string, defLimit int) Params {
	return Params{
		Search:   v.Get("search"),
		Format:   v.Get("format"),
		Language: v.Get("language"),
		Category: v.Get("category"),
		Sort:     v.Get(sortParam),
		Page:     PositiveInt(v.Get("page"), 1),
		Limit:    ClampLimit(PositiveInt(v.Get("limit"), defLimit)),
	}
}

// PositiveInt parses s, falling back to def for blanks, garbage and values below 1.
func PositiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func ClampLimit(n int) int {
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

func containsRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}
