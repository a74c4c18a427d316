package store

import (
	"context"
	"errors"
	"time"

	"github.com/kevinaaaquil/bookstore/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertBanner(ctx context.Context, banner *models.Banner) error {
	now := time.Now().UTC()
	banner.CreatedAt = now
	banner.UpdatedAt = now
	res, err := db.Banners().InsertOne(ctx, banner)
	if err != nil {
		return err
	}
	banner.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// BannersByPage lists the banners of one page, newest first.
func (db *DB) BannersByPage(ctx context.Context, page string) ([]models.Banner, error) {
	cur, err := db.Banners().Find(ctx,
		bson.M{"page": page},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	banners := []models.Banner{}
	if err := cur.All(ctx, &banners); err != nil {
		return nil, err
	}
	return banners, nil
}

func (db *DB) BannerByID(ctx context.Context, id primitive.ObjectID) (*models.Banner, error) {
	var b models.Banner
	err := db.Banners().FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBanner applies set and returns the banner after the update.
func (db *DB) UpdateBanner(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Banner, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now().UTC()
	var b models.Banner
	err := db.Banners().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) DeleteBanner(ctx context.Context, id primitive.ObjectID) (*models.Banner, error) {
	var b models.Banner
	err := db.Banners().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
