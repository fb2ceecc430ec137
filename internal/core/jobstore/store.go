package jobstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/standardforever/job-scrapper/internal/logger"
	"github.com/standardforever/job-scrapper/internal/platform/mongo"
)

const collectionName = "jobs"

// Store persists scraped job postings. Postings are keyed by URL, so
// re-scraping a site refreshes records instead of duplicating them.
type Store struct {
	col *mongodriver.Collection
	log *logger.Logger
}

func NewStore(m *mongo.Service) *Store {
	return &Store{
		col: m.Collection(collectionName),
		log: logger.New("JobStore"),
	}
}

// EnsureIndexes creates the query indexes. Call once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := true
	models := []mongodriver.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: &options.IndexOptions{Unique: &unique}},
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "company_name", Value: 1}}},
		{Keys: bson.D{{Key: "scraped_at", Value: -1}}},
		{Keys: bson.D{{Key: "location.city", Value: 1}, {Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "company_name", Value: 1}, {Key: "location.city", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}, {Key: "company_name", Value: "text"}}},
	}
	if _, err := s.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create job indexes: %w", err)
	}
	return nil
}

// SaveJob upserts one posting by URL and stamps scraped_at.
func (s *Store) SaveJob(ctx context.Context, job map[string]interface{}) error {
	url, _ := job["url"].(string)
	if url == "" {
		return fmt.Errorf("job has no url")
	}
	job["scraped_at"] = time.Now().UTC()

	upsert := true
	_, err := s.col.UpdateOne(ctx,
		bson.M{"url": url},
		bson.M{"$set": job},
		&options.UpdateOptions{Upsert: &upsert},
	)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", url, err)
	}
	return nil
}

// SaveJobs upserts a batch, skipping entries without a URL. Returns how
// many were written.
func (s *Store) SaveJobs(ctx context.Context, jobs []map[string]interface{}) int {
	saved := 0
	for _, job := range jobs {
		if err := s.SaveJob(ctx, job); err != nil {
			s.log.LogError("failed to save job", err)
			continue
		}
		saved++
	}
	if saved > 0 {
		s.log.LogInfof("saved %d job postings", saved)
	}
	return saved
}

// ListQuery selects a page of postings. Location and Company are
// case-insensitive substring filters.
type ListQuery struct {
	Page     int
	PageSize int
	Location string
	Company  string
}

// JobPage is one page of postings with pagination bookkeeping.
type JobPage struct {
	Jobs       []map[string]interface{} `json:"jobs"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int64                    `json:"total_pages"`
}

func (q ListQuery) filter() bson.M {
	filter := bson.M{}
	if q.Location != "" {
		filter["$or"] = bson.A{
			bson.M{"location.city": primitive.Regex{Pattern: q.Location, Options: "i"}},
			bson.M{"location.region": primitive.Regex{Pattern: q.Location, Options: "i"}},
		}
	}
	if q.Company != "" {
		filter["company_name"] = primitive.Regex{Pattern: q.Company, Options: "i"}
	}
	return filter
}

// ListJobs returns one page sorted by most recently scraped.
func (s *Store) ListJobs(ctx context.Context, q ListQuery) (*JobPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 200 {
		q.PageSize = 20
	}
	filter := q.filter()

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	skip := int64((q.Page - 1) * q.PageSize)
	limit := int64(q.PageSize)
	sort := bson.D{{Key: "scraped_at", Value: -1}}
	cursor, err := s.col.Find(ctx, filter, &options.FindOptions{
		Skip:  &skip,
		Limit: &limit,
		Sort:  sort,
		Projection: bson.M{
			"raw_text": 0,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	defer cursor.Close(ctx)

	jobs := []map[string]interface{}{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	totalPages := total / int64(q.PageSize)
	if total%int64(q.PageSize) != 0 {
		totalPages++
	}
	return &JobPage{
		Jobs:       jobs,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// AllJobs streams every posting matching the filter, used by the CSV
// export.
func (s *Store) AllJobs(ctx context.Context, q ListQuery) ([]map[string]interface{}, error) {
	sort := bson.D{{Key: "scraped_at", Value: -1}}
	cursor, err := s.col.Find(ctx, q.filter(), &options.FindOptions{Sort: sort})
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	defer cursor.Close(ctx)

	jobs := []map[string]interface{}{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}

// GroupCount is one bucket of an aggregation.
type GroupCount struct {
	Value string `json:"value" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// Stats summarizes the stored postings.
type Stats struct {
	TotalJobs    int64        `json:"total_jobs"`
	TopLocations []GroupCount `json:"top_locations"`
	TopCompanies []GroupCount `json:"top_companies"`
}

func (s *Store) topBuckets(ctx context.Context, field string, limit int) ([]GroupCount, error) {
	pipeline := []bson.M{
		{"$match": bson.M{field: bson.M{"$exists": true, "$ne": nil}}},
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
		{"$limit": limit},
	}
	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", field, err)
	}
	defer cursor.Close(ctx)

	out := []GroupCount{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	total, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	locations, err := s.topBuckets(ctx, "location.city", 10)
	if err != nil {
		return nil, err
	}
	companies, err := s.topBuckets(ctx, "company_name", 10)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalJobs:    total,
		TopLocations: locations,
		TopCompanies: companies,
	}, nil
}
