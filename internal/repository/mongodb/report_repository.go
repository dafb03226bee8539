package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/newsletter/internal/domain/models"
)

// ReportStore is the persistence boundary for reports.
type ReportStore interface {
	Insert(ctx context.Context, report *models.Report) error
	Find(ctx context.Context, query ReportQuery) ([]models.Report, int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	Update(ctx context.Context, id primitive.ObjectID, update ReportUpdate) (*models.Report, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// ReportQuery filters and pages a report listing. Zero values mean "any".
// A zero Limit returns every match.
type ReportQuery struct {
	Company *primitive.ObjectID
	Type    models.ReportType
	Status  models.ReportStatus
	Offset  int64
	Limit   int64
}

// ReportUpdate lists the fields a caller wants replaced. Nil fields are left
// untouched.
type ReportUpdate struct {
	Commentary      *models.Commentary
	ModelPortfolios *models.ReportPortfolios
	FundData        *[]models.FundPerformance
	Status          *models.ReportStatus
	Type            *models.ReportType
	PDFURL          *string
}

// Empty reports whether no field is set.
func (u ReportUpdate) Empty() bool {
	return u.Commentary == nil && u.ModelPortfolios == nil && u.FundData == nil &&
		u.Status == nil && u.Type == nil && u.PDFURL == nil
}

func (u ReportUpdate) setDocument(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Commentary != nil {
		set["commentary"] = *u.Commentary
	}
	if u.ModelPortfolios != nil {
		set["modelPortfolios"] = *u.ModelPortfolios
	}
	if u.FundData != nil {
		set["fundData"] = *u.FundData
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Type != nil {
		set["type"] = *u.Type
	}
	if u.PDFURL != nil {
		set["pdfUrl"] = *u.PDFURL
	}
	return set
}

// ReportRepository implements ReportStore on the reports collection.
type ReportRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewReportRepository builds a repository on the given database.
func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{
		coll: db.Collection(reportsCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the listing indexes.
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "company", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create report indexes: %w", err)
	}
	return nil
}

// Insert stores a new report, assigning an identifier and timestamps when absent.
func (r *ReportRepository) Insert(ctx context.Context, report *models.Report) error {
	if report == nil {
		return errors.New("report must not be nil")
	}

	now := r.now()
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	if report.Date.IsZero() {
		report.Date = report.CreatedAt
	}
	if report.UpdatedAt.IsZero() {
		report.UpdatedAt = report.CreatedAt
	}
	if report.FundData == nil {
		report.FundData = []models.FundPerformance{}
	}

	if _, err := r.coll.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Find returns one page of reports, newest first, and the total match count.
func (r *ReportRepository) Find(ctx context.Context, query ReportQuery) ([]models.Report, int64, error) {
	filter := bson.M{}
	if query.Company != nil {
		filter["company"] = *query.Company
	}
	if query.Type != "" {
		filter["type"] = query.Type
	}
	if query.Status != "" {
		filter["status"] = query.Status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	if query.Offset > 0 {
		opts.SetSkip(query.Offset)
	}
	if query.Limit > 0 {
		opts.SetLimit(query.Limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find reports: %w", err)
	}

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, 0, fmt.Errorf("decode reports: %w", err)
	}

	return reports, total, nil
}

// FindByID loads one report.
func (r *ReportRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var report models.Report
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("report %s: %w", id.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find report %s: %w", id.Hex(), err)
	}
	return &report, nil
}

// Update applies the set fields and returns the updated document.
func (r *ReportRepository) Update(ctx context.Context, id primitive.ObjectID, update ReportUpdate) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var report models.Report
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update.setDocument(r.now())}, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("report %s: %w", id.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update report %s: %w", id.Hex(), err)
	}
	return &report, nil
}

// DeleteByID removes one report.
func (r *ReportRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete report %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("report %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
