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

// CompanyStore persists companies and their templates.
type CompanyStore interface {
	Insert(ctx context.Context, company *models.Company) error
	List(ctx context.Context) ([]models.Company, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Company, error)
	Update(ctx context.Context, id primitive.ObjectID, update CompanyUpdate) (*models.Company, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// CompanyUpdate lists the company fields to replace. Nil fields are untouched.
type CompanyUpdate struct {
	Name     *string
	Logo     *string
	Template *models.Template
}

// CompanyRepository implements CompanyStore on the companies collection.
type CompanyRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewCompanyRepository builds a repository on the given database.
func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{
		coll: db.Collection(companiesCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores a new company.
func (r *CompanyRepository) Insert(ctx context.Context, company *models.Company) error {
	if company == nil {
		return errors.New("company must not be nil")
	}
	if company.ID.IsZero() {
		company.ID = primitive.NewObjectID()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = r.now()
	}

	if _, err := r.coll.InsertOne(ctx, company); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// List returns every company sorted by name.
func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find companies: %w", err)
	}

	companies := []models.Company{}
	if err := cursor.All(ctx, &companies); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	return companies, nil
}

// FindByID loads one company.
func (r *CompanyRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	var company models.Company
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&company)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("company %s: %w", id.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find company %s: %w", id.Hex(), err)
	}
	return &company, nil
}

// FindByIDs loads the given companies keyed by id. Unknown ids are absent from
// the result.
func (r *CompanyRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Company, error) {
	out := make(map[primitive.ObjectID]models.Company, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find companies: %w", err)
	}

	var companies []models.Company
	if err := cursor.All(ctx, &companies); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	for _, c := range companies {
		out[c.ID] = c
	}
	return out, nil
}

// Update replaces the set fields and returns the updated company.
func (r *CompanyRepository) Update(ctx context.Context, id primitive.ObjectID, update CompanyUpdate) (*models.Company, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Logo != nil {
		set["logo"] = *update.Logo
	}
	if update.Template != nil {
		set["template"] = *update.Template
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var company models.Company
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&company)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("company %s: %w", id.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update company %s: %w", id.Hex(), err)
	}
	return &company, nil
}

// DeleteByID removes one company.
func (r *CompanyRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete company %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("company %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
