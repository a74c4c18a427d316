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

// AdminsCount returns the number of users with role admin.
func (db *DB) AdminsCount(ctx context.Context) (int64, error) {
	return db.Users().CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := db.Users().FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts user; the password must already be hashed.
func (db *DB) CreateUser(ctx context.Context, user *models.AdminUser) (primitive.ObjectID, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	user.ID = id
	return id, nil
}

// UpsertUser creates the user or replaces the password hash and role of an existing one.
// It reports whether a new document was created.
func (db *DB) UpsertUser(ctx context.Context, username, hashedPassword, role string) (bool, error) {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{
			"$set":         bson.M{"password": hashedPassword, "role": role},
			"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
