package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/zircuit-labs/mongo-status/cmd/config"
)

// DefaultDatabaseName is used when the connection URL names no database
const DefaultDatabaseName = "test"

// MongoDialer opens sessions with the official MongoDB driver.
// Zero timeouts keep the driver defaults.
type MongoDialer struct {
	AppName                string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

// NewMongoDialer creates a dialer from the [database] config section
func NewMongoDialer(cfg config.DatabaseConfig) *MongoDialer {
	return &MongoDialer{
		AppName:                cfg.AppName,
		ConnectTimeout:         cfg.ConnectTimeout,
		ServerSelectionTimeout: cfg.ServerSelectionTimeout,
	}
}

// Dial connects to url and confirms the deployment is reachable with a
// ping against the primary before returning the handle.
func (d *MongoDialer) Dial(ctx context.Context, url string) (Handle, error) {
	cs, err := connstring.ParseAndValidate(url)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	client, err := mongo.Connect(ctx, d.clientOptions(url))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	name := cs.Database
	if name == "" {
		name = DefaultDatabaseName
	}

	return &MongoHandle{
		client: client,
		db:     client.Database(name),
	}, nil
}

func (d *MongoDialer) clientOptions(url string) *options.ClientOptions {
	opts := options.Client().ApplyURI(url)
	if d.AppName != "" {
		opts.SetAppName(d.AppName)
	}
	if d.ConnectTimeout > 0 {
		opts.SetConnectTimeout(d.ConnectTimeout)
	}
	if d.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(d.ServerSelectionTimeout)
	}
	return opts
}

// MongoHandle is a Handle backed by a driver client and its default database
type MongoHandle struct {
	client *mongo.Client
	db     *mongo.Database
}

// Name returns the default database name
func (h *MongoHandle) Name() string {
	return h.db.Name()
}

// Database returns the driver handle of the default database
func (h *MongoHandle) Database() *mongo.Database {
	return h.db
}

// Ping issues a round trip to the primary
func (h *MongoHandle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}

// Disconnect closes all pooled connections
func (h *MongoHandle) Disconnect(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}
