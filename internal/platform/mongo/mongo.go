package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/standardforever/job-scrapper/internal/logger"
)

type Options struct {
	URI      string
	Database string
}

// Service wraps the shared Mongo client and database handle.
type Service struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

// New connects and verifies the deployment is reachable.
func New(opts Options) (*Service, error) {
	log := logger.New("Mongo")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.LogSuccessf("connected to %s", opts.Database)
	return &Service{
		client: client,
		db:     client.Database(opts.Database),
		log:    log,
	}, nil
}

func (s *Service) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Service) Database() *mongo.Database { return s.db }

func (s *Service) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// HealthCheck pings the primary and runs a trivial command so a broken
// auth setup fails here rather than on first write.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	var result bson.M
	if err := s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Decode(&result); err != nil {
		return fmt.Errorf("mongo ping command failed: %w", err)
	}
	return nil
}
