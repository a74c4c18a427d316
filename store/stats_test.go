package store

import (
	"context"
	"testing"

	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ordersNS = "bookstore.orders"

func totalResponse(n int64) bson.D {
	return mtest.CreateCursorResponse(0, booksNS, mtest.FirstBatch, bson.D{{Key: "total", Value: n}})
}

func emptyCursor(ns string) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
}

func TestAdminStats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no orders", func(mt *mtest.T) {
		mt.AddMockResponses(
			countResponse(3),      // books
			totalResponse(4),      // authors
			totalResponse(2),      // publishers
			emptyCursor(booksNS),  // categories
			emptyCursor(ordersNS), // orders
			emptyCursor(ordersNS), // sales
			countResponse(1),      // trending
			emptyCursor(ordersNS), // monthly
		)

		stats, err := newMockDB(mt).AdminStats(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), stats.TotalBooks)
		assert.Equal(mt, int64(4), stats.TotalAuthors)
		assert.Equal(mt, int64(2), stats.TotalPublishers)
		assert.Zero(mt, stats.TotalCategories)
		assert.Zero(mt, stats.TotalOrders)
		assert.Zero(mt, stats.TotalSales)
		assert.Equal(mt, int64(1), stats.TrendingBooks)
		assert.NotNil(mt, stats.MonthlySales)
		assert.Empty(mt, stats.MonthlySales)
	})

	mt.Run("monthly breakdown", func(mt *mtest.T) {
		mt.AddMockResponses(
			countResponse(10),
			totalResponse(7),
			totalResponse(3),
			totalResponse(5),
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch, bson.D{{Key: "n", Value: int64(3)}}),
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: nil}, {Key: "totalSales", Value: 74.5}}),
			countResponse(6),
			mtest.CreateCursorResponse(0, ordersNS, mtest.FirstBatch,
				bson.D{{Key: "year", Value: 2024}, {Key: "month", Value: 11}, {Key: "totalSales", Value: 20.0}, {Key: "totalOrders", Value: 1}},
				bson.D{{Key: "year", Value: 2024}, {Key: "month", Value: 12}, {Key: "totalSales", Value: 54.5}, {Key: "totalOrders", Value: 2}},
			),
		)

		stats, err := newMockDB(mt).AdminStats(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), stats.TotalOrders)
		assert.Equal(mt, 74.5, stats.TotalSales)
		assert.Equal(mt, []models.MonthlySales{
			{Year: 2024, Month: 11, TotalSales: 20, TotalOrders: 1},
			{Year: 2024, Month: 12, TotalSales: 54.5, TotalOrders: 2},
		}, stats.MonthlySales)
	})

	mt.Run("sub-query failure aborts", func(mt *mtest.T) {
		mt.AddMockResponses(
			countResponse(3),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad pipeline", Name: "BadValue"}),
		)

		_, err := newMockDB(mt).AdminStats(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "count authors")
	})
}
