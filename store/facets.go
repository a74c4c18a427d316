package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/kevinaaaquil/bookstore/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FacetField is a catalog field that can be grouped.
type FacetField string

const (
	FacetAuthors    FacetField = "authors"
	FacetPublisher  FacetField = "publisher"
	// FacetCategories is only counted, never paged.
	FacetCategories FacetField = "categories"
)

// Facet sort orders.
const (
	FacetMostPopular = "mostPopular"
	FacetNameAZ      = "nameAZ"
)

// groupStages returns the stages shared by the page and the count pipelines: multi-valued fields are unwound
// first so a co-authored book counts once for each of its authors, and blank keys are dropped. A name listed
// twice on the same book is collapsed to one entry per book.
func groupStages(field FacetField) mongo.Pipeline {
	ref := "$" + string(field)
	multi := field == FacetAuthors || field == FacetCategories
	var p mongo.Pipeline
	if multi {
		p = append(p, bson.D{{Key: "$unwind", Value: ref}})
	}
	p = append(p, bson.D{{Key: "$match", Value: bson.D{
		{Key: string(field), Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}},
	}}})
	if multi {
		p = append(p,
			bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: bson.D{{Key: "book", Value: "$_id"}, {Key: "value", Value: ref}}},
				{Key: "title", Value: bson.D{{Key: "$first", Value: "$title"}}},
			}}},
			bson.D{{Key: "$project", Value: bson.D{
				{Key: "_id", Value: 0},
				{Key: string(field), Value: "$_id.value"},
				{Key: "title", Value: 1},
			}}},
		)
	}
	return p
}

// FacetPipeline builds the grouped, sorted and paginated aggregation for one page of facets.
func FacetPipeline(field FacetField, order string, skip, limit int64) mongo.Pipeline {
	p := groupStages(field)
	p = append(p, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$" + string(field)},
		{Key: "titles", Value: bson.D{{Key: "$push", Value: "$title"}}},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}})
	sortDoc := bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}
	if order == FacetNameAZ {
		sortDoc = bson.D{{Key: "_id", Value: 1}}
	}
	return append(p,
		bson.D{{Key: "$sort", Value: sortDoc}},
		bson.D{{Key: "$skip", Value: skip}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "name", Value: "$_id"},
			{Key: "titles", Value: 1},
			{Key: "count", Value: 1},
		}}},
	)
}

// DistinctCountPipeline counts the distinct non-blank values of field (unwound when multi-valued).
func DistinctCountPipeline(field FacetField) mongo.Pipeline {
	p := groupStages(field)
	return append(p,
		bson.D{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + string(field)}}}},
		bson.D{{Key: "$count", Value: "total"}},
	)
}

// Facets returns one page of groups for field together with the number of distinct groups.
func (db *DB) Facets(ctx context.Context, field FacetField, order string, skip, limit int64) ([]models.Facet, int64, error) {
	cur, err := db.Books().Aggregate(ctx, FacetPipeline(field, order, skip, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate %s: %w", field, err)
	}
	defer cur.Close(ctx)
	facets := []models.Facet{}
	if err := cur.All(ctx, &facets); err != nil {
		return nil, 0, fmt.Errorf("decode %s facets: %w", field, err)
	}
	total, err := db.countPipeline(ctx, db.Books(), DistinctCountPipeline(field))
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", field, err)
	}
	return facets, total, nil
}

// PopularSeries returns the distinct series names, sorted.
func (db *DB) PopularSeries(ctx context.Context) ([]string, error) {
	values, err := db.Books().Distinct(ctx, "seriesName", bson.D{
		{Key: "seriesName", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}},
	})
	if err != nil {
		return nil, err
	}
	series := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			series = append(series, s)
		}
	}
	sort.Strings(series)
	return series, nil
}

// countPipeline runs a pipeline ending in {$count: "total"} and returns 0 when it yields no document.
func (db *DB) countPipeline(ctx context.Context, coll *mongo.Collection, p mongo.Pipeline) (int64, error) {
	cur, err := coll.Aggregate(ctx, p)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var out []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Total, nil
}
