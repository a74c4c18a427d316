package store

import (
	"context"
	"fmt"

	"github.com/kevinaaaquil/bookstore/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	totalSalesPipeline = mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalSales", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
		}}},
	}
	monthlySalesPipeline = mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "year", Value: bson.D{{Key: "$year", Value: "$createdAt"}}},
				{Key: "month", Value: bson.D{{Key: "$month", Value: "$createdAt"}}},
			}},
			{Key: "totalSales", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
			{Key: "totalOrders", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "year", Value: "$_id.year"},
			{Key: "month", Value: "$_id.month"},
			{Key: "totalSales", Value: 1},
			{Key: "totalOrders", Value: 1},
		}}},
	}
)

// AdminStats computes the dashboard snapshot. The sub-queries run one after another; the first failure aborts
// the whole snapshot.
func (db *DB) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var (
		stats models.AdminStats
		err   error
	)
	if stats.TotalBooks, err = db.Books().CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	if stats.TotalAuthors, err = db.countPipeline(ctx, db.Books(), DistinctCountPipeline(FacetAuthors)); err != nil {
		return nil, fmt.Errorf("count authors: %w", err)
	}
	if stats.TotalPublishers, err = db.countPipeline(ctx, db.Books(), DistinctCountPipeline(FacetPublisher)); err != nil {
		return nil, fmt.Errorf("count publishers: %w", err)
	}
	if stats.TotalCategories, err = db.countPipeline(ctx, db.Books(), DistinctCountPipeline(FacetCategories)); err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	if stats.TotalOrders, err = db.Orders().CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if stats.TotalSales, err = db.totalSales(ctx); err != nil {
		return nil, fmt.Errorf("sum sales: %w", err)
	}
	trending := bson.D{{Key: "reviews", Value: bson.D{{Key: "$gt", Value: 0}}}}
	if stats.TrendingBooks, err = db.Books().CountDocuments(ctx, trending); err != nil {
		return nil, fmt.Errorf("count trending books: %w", err)
	}
	if stats.MonthlySales, err = db.monthlySales(ctx); err != nil {
		return nil, fmt.Errorf("monthly sales: %w", err)
	}
	return &stats, nil
}

func (db *DB) totalSales(ctx context.Context) (float64, error) {
	cur, err := db.Orders().Aggregate(ctx, totalSalesPipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var out []struct {
		TotalSales float64 `bson:"totalSales"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].TotalSales, nil
}

func (db *DB) monthlySales(ctx context.Context) ([]models.MonthlySales, error) {
	cur, err := db.Orders().Aggregate(ctx, monthlySalesPipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	months := []models.MonthlySales{}
	if err := cur.All(ctx, &months); err != nil {
		return nil, err
	}
	return months, nil
}
