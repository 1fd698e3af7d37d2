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

const collectionLoans = "loans"

// LoanRepository implements ports.LoanRepository on MongoDB. Transitions are
// compare-and-set writes filtered by the current status, which serializes
// concurrent mutations of the same loan without explicit locks.
type LoanRepository struct {
	col *mongo.Collection
}

func NewLoanRepository(db *mongo.Database) *LoanRepository {
	return &LoanRepository{col: db.Collection(collectionLoans)}
}

func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, loan)
	return err
}

func (r *LoanRepository) FindByID(ctx context.Context, id string) (*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var loan domain.Loan
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&loan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *LoanRepository) List(ctx context.Context, filter ports.ListLoansFilter) ([]*domain.Loan, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.MemberID != "" {
		query["member_id"] = filter.MemberID
	}
	if filter.BranchID != "" {
		query["branch_id"] = filter.BranchID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	switch sortBy {
	case "due_date", "status", "created_at":
	default:
		sortBy = "created_at"
	}
	order := -1
	if filter.SortAsc {
		order = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: order}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var loans []*domain.Loan
	if err := cursor.All(ctx, &loans); err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

func (r *LoanRepository) CountActive(ctx context.Context, memberID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"member_id": memberID,
		"status":    bson.M{"$in": statusStrings(domain.ActiveStatuses())},
	})
}

// ApplyTransition performs the CAS write: the filter matches the loan only
// while it is still in update.From, so a concurrent transition makes this a
// no-match and the caller gets ErrInvalidTransition.
func (r *LoanRepository) ApplyTransition(ctx context.Context, loanID string, update ports.TransitionUpdate) (*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"status":     string(update.To),
		"updated_at": update.History.ChangedAt,
	}
	if update.BorrowDate != nil {
		set["borrow_date"] = update.BorrowDate.UTC()
	}
	if update.DueDate != nil {
		set["due_date"] = update.DueDate.UTC()
	}
	if update.ReturnDate != nil {
		set["return_date"] = update.ReturnDate.UTC()
	}
	if update.LateFee != nil {
		set["late_fee"] = *update.LateFee
	}

	filter := bson.M{"_id": loanID, "status": string(update.From)}
	change := bson.M{
		"$set":  set,
		"$push": bson.M{"status_history": update.History},
	}

	var loan domain.Loan
	err := r.col.FindOneAndUpdate(ctx, filter, change,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&loan)
	if err == nil {
		return &loan, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the loan is gone or another actor won the race.
	if _, findErr := r.FindByID(ctx, loanID); findErr != nil {
		return nil, findErr
	}
	return nil, domain.ErrInvalidTransition
}

func (r *LoanRepository) FindDue(ctx context.Context, cutoff time.Time) ([]*domain.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{
		"status":   string(domain.StatusBorrowed),
		"due_date": bson.M{"$lt": cutoff.UTC()},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var loans []*domain.Loan
	if err := cursor.All(ctx, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *LoanRepository) CountHoldingByBook(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status": bson.M{"$in": statusStrings(domain.CopyHoldingStatuses())},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$book_id",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			BookID string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.BookID] = row.Count
	}
	return counts, cursor.Err()
}

// EnsureIndexes creates the indexes the loan queries rely on.
func (r *LoanRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "member_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func statusStrings(statuses []domain.LoanStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
