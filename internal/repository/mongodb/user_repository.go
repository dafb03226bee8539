package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/newsletter/internal/domain/models"
)

// UserStore persists operator accounts.
type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// UserRepository implements UserStore on the users collection.
type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewUserRepository builds a repository on the given database.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		coll: db.Collection(usersCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes makes email unique.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Insert stores a new user. A taken email yields models.ErrConflict.
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("user must not be nil")
	}
	user.Email = normalizeEmail(user.Email)
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail loads a user by (case-insensitive) email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)

	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", email, err)
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id.Hex(), err)
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
