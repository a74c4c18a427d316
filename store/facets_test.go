package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func stageNames(p mongo.Pipeline) []string {
	names := make([]string, len(p))
	for i, stage := range p {
		names[i] = stage[0].Key
	}
	return names
}

func TestFacetPipelineUnwindsAuthors(t *testing.T) {
	p := FacetPipeline(FacetAuthors, FacetMostPopular, 20, 10)
	assert.Equal(t, []string{"$unwind", "$match", "$group", "$project", "$group", "$sort", "$skip", "$limit", "$project"}, stageNames(p))
	assert.Equal(t, "$authors", p[0][0].Value)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}, p[5][0].Value)
	assert.Equal(t, int64(20), p[6][0].Value)
	assert.Equal(t, int64(10), p[7][0].Value)
}

func TestFacetPipelineCountsEachBookOnce(t *testing.T) {
	p := FacetPipeline(FacetAuthors, FacetMostPopular, 0, 10)

	perBook := p[2][0].Value.(bson.D)
	assert.Equal(t, bson.D{{Key: "book", Value: "$_id"}, {Key: "value", Value: "$authors"}}, perBook[0].Value)

	flatten := p[3][0].Value.(bson.D)
	assert.Contains(t, flatten, bson.E{Key: "authors", Value: "$_id.value"})
	assert.Contains(t, flatten, bson.E{Key: "title", Value: 1})
}

func TestFacetPipelinePublisherIsNotUnwound(t *testing.T) {
	p := FacetPipeline(FacetPublisher, FacetNameAZ, 0, 10)
	assert.Equal(t, []string{"$match", "$group", "$sort", "$skip", "$limit", "$project"}, stageNames(p))

	match := p[0][0].Value.(bson.D)
	assert.Equal(t, "publisher", match[0].Key)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, p[2][0].Value)
}

func TestDistinctCountPipeline(t *testing.T) {
	assert.Equal(t, []string{"$unwind", "$match", "$group", "$project", "$group", "$count"}, stageNames(DistinctCountPipeline(FacetAuthors)))
	assert.Equal(t, []string{"$unwind", "$match", "$group", "$project", "$group", "$count"}, stageNames(DistinctCountPipeline(FacetCategories)))
	assert.Equal(t, []string{"$match", "$group", "$count"}, stageNames(DistinctCountPipeline(FacetPublisher)))
}

func TestFacets(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("page and total", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, booksNS, mtest.FirstBatch,
				bson.D{{Key: "name", Value: "Neil Gaiman"}, {Key: "titles", Value: bson.A{"Good Omens", "Coraline"}}, {Key: "count", Value: 2}},
				bson.D{{Key: "name", Value: "Terry Pratchett"}, {Key: "titles", Value: bson.A{"Good Omens"}}, {Key: "count", Value: 1}},
			),
			mtest.CreateCursorResponse(0, booksNS, mtest.FirstBatch, bson.D{{Key: "total", Value: 2}}),
		)

		facets, total, err := newMockDB(mt).Facets(context.Background(), FacetAuthors, FacetMostPopular, 0, 10)
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), total)
		require.Len(mt, facets, 2)
		assert.Equal(mt, "Neil Gaiman", facets[0].Name)
		assert.Equal(mt, 2, facets[0].Count)
		assert.Equal(mt, []string{"Good Omens"}, facets[1].Titles)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "aggregate", started.CommandName)
	})

	mt.Run("empty catalog", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, booksNS, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, booksNS, mtest.FirstBatch),
		)

		facets, total, err := newMockDB(mt).Facets(context.Background(), FacetPublisher, FacetNameAZ, 0, 10)
		require.NoError(mt, err)
		assert.Zero(mt, total)
		assert.NotNil(mt, facets)
		assert.Empty(mt, facets)
	})
}

func TestPopularSeries(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sorted names", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "values",
			Value: bson.A{"Discworld", "Earthsea", "", "Dune"},
		}))

		series, err := newMockDB(mt).PopularSeries(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []string{"Discworld", "Dune", "Earthsea"}, series)
	})
}
