package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Info().Str("db", dbName).Msg("connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

// Books holds the catalog. The collection keeps its legacy name "bulkimports".
func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection("bulkimports")
}

func (db *DB) Banners() *mongo.Collection {
	return db.Database.Collection("banners")
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Orders() *mongo.Collection {
	return db.Database.Collection("orders")
}

// EnsureIndexes creates the unique ISBN index that backs duplicate detection, plus the indexes used by the
// listing sorts and the banner page lookup.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.Books().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ISBN", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "releaseDate", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Banners().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "page", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return err
	}
	_, err = db.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// SupportsTransactions reports whether the deployment is a replica set or sharded cluster.
func (db *DB) SupportsTransactions(ctx context.Context) bool {
	var hello bson.M
	if err := db.Database.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false
	}
	if _, ok := hello["setName"]; ok {
		return true
	}
	return hello["msg"] == "isdbgrid"
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
