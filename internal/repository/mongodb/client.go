package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	reportsCollection   = "reports"
	companiesCollection = "companies"
	usersCollection     = "users"
)

// Client owns the process' MongoDB connection. It is created once at startup,
// handed to the repositories, and closed on shutdown.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewClient connects to MongoDB and verifies the connection with a ping.
func NewClient(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("connected to mongodb", zap.String("database", dbName))

	return &Client{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// Database returns the handle repositories are built on.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// EnsureIndexes creates the indexes every repository relies on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	if err := NewReportRepository(c.db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := NewUserRepository(c.db).EnsureIndexes(ctx); err != nil {
		return err
	}
	c.logger.Debug("mongodb indexes ensured")
	return nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
