package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kevinaaaquil/bookstore/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WriteFailure is one document the server rejected during InsertBooks. Index is the position in the batch.
type WriteFailure struct {
	Index     int
	Duplicate bool
	Message   string
}

func stamp(book *models.Book, now time.Time) {
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now
}

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	stamp(book, time.Now().UTC())
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicateISBN
		}
		return primitive.NilObjectID, err
	}
	id := res.InsertedID.(primitive.ObjectID)
	book.ID = id
	return id, nil
}

// InsertBooks writes one unordered batch. Rejected documents do not stop the rest of the batch; they come back
// as failures. A write concern error is returned together with the count of documents the server applied, since
// those stay written. Any other error means the batch as a whole could not be written.
func (db *DB) InsertBooks(ctx context.Context, books []models.Book) (int, []WriteFailure, error) {
	if len(books) == 0 {
		return 0, nil, nil
	}
	docs := stampAll(books)
	_, err := db.Books().InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(books), nil, nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || (bwe.WriteConcernError == nil && len(bwe.WriteErrors) == 0) {
		return 0, nil, err
	}
	failures := make([]WriteFailure, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		failures = append(failures, WriteFailure{
			Index:     we.Index,
			Duplicate: we.HasErrorCode(11000),
			Message:   we.Message,
		})
	}
	inserted := len(books) - len(failures)
	if bwe.WriteConcernError != nil {
		return inserted, failures, fmt.Errorf("write concern: %w", bwe.WriteConcernError)
	}
	return inserted, failures, nil
}

// InsertBooksAtomic inserts every book inside one transaction, chunkSize documents per InsertMany. Either all
// books are committed or none are. Requires a replica set.
func (db *DB) InsertBooksAtomic(ctx context.Context, books []models.Book, chunkSize int) error {
	if len(books) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = len(books)
	}
	sess, err := db.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for start := 0; start < len(books); start += chunkSize {
			end := min(start+chunkSize, len(books))
			if _, err := db.Books().InsertMany(sc, stampAll(books[start:end])); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateISBN, err)
	}
	return err
}

func stampAll(books []models.Book) []interface{} {
	now := time.Now().UTC()
	docs := make([]interface{}, len(books))
	for i := range books {
		stamp(&books[i], now)
		docs[i] = books[i]
	}
	return docs
}

// ExistingISBNs returns which of isbns are already stored.
func (db *DB) ExistingISBNs(ctx context.Context, isbns []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(isbns) == 0 {
		return found, nil
	}
	cur, err := db.Books().Find(ctx,
		bson.M{"ISBN": bson.M{"$in": isbns}},
		options.Find().SetProjection(bson.M{"ISBN": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var doc struct {
			ISBN string `bson:"ISBN"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		found[doc.ISBN] = true
	}
	return found, cur.Err()
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindBooks runs a filtered, sorted page read and returns the page together with the number of documents the
// filter matches.
func (db *DB) FindBooks(ctx context.Context, filter, sort bson.D, skip, limit int64) ([]models.Book, int64, error) {
	total, err := db.Books().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	opts := options.Find().SetSort(sort).SetSkip(skip).SetLimit(limit)
	cur, err := db.Books().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find books: %w", err)
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, fmt.Errorf("decode books: %w", err)
	}
	return books, total, nil
}

// UpdateBook applies set and returns the document after the update.
func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Book, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now().UTC()
	var book models.Book
	err := db.Books().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&book)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicateISBN
	case err != nil:
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book and returns the deleted document.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}
