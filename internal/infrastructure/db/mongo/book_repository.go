package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/librarium/loan-service/internal/core/domain"
	"github.com/librarium/loan-service/internal/core/ports"
)

const collectionBooks = "books"

// BookRepository implements ports.BookRepository on MongoDB. All copy-count
// writes are conditional updates whose filter encodes the invariant, so the
// count can never go negative or exceed total_copies even under concurrent
// transitions.
type BookRepository struct {
	col *mongo.Collection
}

func NewBookRepository(db *mongo.Database) *BookRepository {
	return &BookRepository{col: db.Collection(collectionBooks)}
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrBookExists
		}
		return err
	}
	return nil
}

func (r *BookRepository) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var book domain.Book
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&book); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// Update writes the mutable fields and applies copiesDelta to both counts in
// one conditional update. A negative delta only matches while enough copies
// are still available, which is exactly the "never below copies currently
// out" rule.
func (r *BookRepository) Update(ctx context.Context, book *domain.Book, copiesDelta int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": book.ID}
	if copiesDelta < 0 {
		filter["available_copies"] = bson.M{"$gte": -copiesDelta}
	}

	update := bson.M{
		"$set": bson.M{
			"title":            book.Title,
			"author":           book.Author,
			"description":      book.Description,
			"genre":            book.Genre,
			"publication_year": book.PublicationYear,
			"branch_id":        book.BranchID,
			"updated_at":       book.UpdatedAt,
		},
	}
	if copiesDelta != 0 {
		update["$inc"] = bson.M{
			"total_copies":     copiesDelta,
			"available_copies": copiesDelta,
		}
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, findErr := r.FindByID(ctx, book.ID); findErr != nil {
			return findErr
		}
		return domain.ErrCopiesOnLoan
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) List(ctx context.Context, filter ports.ListBooksFilter) ([]*domain.Book, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.BranchID != "" {
		query["branch_id"] = filter.BranchID
	}
	if filter.Genre != "" {
		query["genre"] = bson.M{"$regex": filter.Genre, "$options": "i"}
	}
	if filter.Author != "" {
		query["author"] = bson.M{"$regex": filter.Author, "$options": "i"}
	}
	if filter.AvailableOnly {
		query["available_copies"] = bson.M{"$gt": 0}
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"author": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"isbn": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var books []*domain.Book
	if err := cursor.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// ReserveCopy atomically claims one available copy. The $gt guard makes the
// availability re-check and the decrement a single operation, so two
// concurrent approvals of the last copy cannot both succeed.
func (r *BookRepository) ReserveCopy(ctx context.Context, bookID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": bookID, "available_copies": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"available_copies": -1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, findErr := r.FindByID(ctx, bookID); findErr != nil {
			return findErr
		}
		return domain.ErrNoCopiesAvailable
	}
	return nil
}

// ReleaseCopy hands a reserved copy back, never past total_copies.
func (r *BookRepository) ReleaseCopy(ctx context.Context, bookID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": bookID, "$expr": bson.M{"$lt": bson.A{"$available_copies", "$total_copies"}}},
		bson.M{"$inc": bson.M{"available_copies": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, findErr := r.FindByID(ctx, bookID); findErr != nil {
			return findErr
		}
		return errors.New("available_copies already at total_copies")
	}
	return nil
}

func (r *BookRepository) SetAvailableCopies(ctx context.Context, bookID string, n int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": bookID},
		bson.M{"$set": bson.M{"available_copies": n}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// EnsureIndexes creates the unique ISBN index and the list-query indexes.
func (r *BookRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isbn", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "branch_id", Value: 1}}},
		{Keys: bson.D{{Key: "available_copies", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
