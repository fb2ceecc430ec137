package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/standardforever/job-scrapper/internal/logger"
	"github.com/standardforever/job-scrapper/internal/platform/mongo"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

type BatchStatus string

const (
	BatchPending            BatchStatus = "pending"
	BatchRunning            BatchStatus = "running"
	BatchCompleted          BatchStatus = "completed"
	BatchFailed             BatchStatus = "failed"
	BatchCancelled          BatchStatus = "cancelled"
	BatchPartiallyCompleted BatchStatus = "partially_completed"
)

// Batch is the stored record of one scraping run over a set of URLs.
type Batch struct {
	BatchID          string      `bson:"batch_id" json:"batch_id"`
	Status           BatchStatus `bson:"status" json:"status"`
	TotalURLs        int         `bson:"total_urls" json:"total_urls"`
	CompletedURLs    int         `bson:"completed_urls" json:"completed_urls"`
	FailedURLs       int         `bson:"failed_urls" json:"failed_urls"`
	PendingURLs      int         `bson:"pending_urls" json:"pending_urls"`
	RunningURLs      int         `bson:"running_urls" json:"running_urls"`
	WorkersAllocated int         `bson:"workers_allocated" json:"workers_allocated"`
	WorkersActive    int         `bson:"workers_active" json:"workers_active"`
	Priority         int         `bson:"priority" json:"priority"`
	TotalJobsFound   int         `bson:"total_jobs_found" json:"total_jobs_found"`
	CreatedAt        time.Time   `bson:"created_at" json:"created_at"`
	StartedAt        *time.Time  `bson:"started_at" json:"started_at"`
	CompletedAt      *time.Time  `bson:"completed_at" json:"completed_at"`
	Error            *string     `bson:"error" json:"error"`
}

// Task is one URL within a batch.
type Task struct {
	TaskID          string                 `bson:"task_id" json:"task_id"`
	BatchID         string                 `bson:"batch_id" json:"batch_id"`
	URL             string                 `bson:"url" json:"url"`
	Status          TaskStatus             `bson:"status" json:"status"`
	WorkerID        *int                   `bson:"worker_id" json:"worker_id"`
	Order           int                    `bson:"order" json:"order"`
	JobsFound       int                    `bson:"jobs_found" json:"jobs_found"`
	ProgressPercent float64                `bson:"progress_percent" json:"progress_percent"`
	CreatedAt       time.Time              `bson:"created_at" json:"created_at"`
	StartedAt       *time.Time             `bson:"started_at" json:"started_at"`
	CompletedAt     *time.Time             `bson:"completed_at" json:"completed_at"`
	Error           *string                `bson:"error" json:"error"`
	Result          map[string]interface{} `bson:"result" json:"result"`
}

// Progress is what the status endpoint returns while a batch runs.
type Progress struct {
	IsRunning bool   `json:"is_running"`
	BatchInfo *Batch `json:"batch_info"`
	Tasks     []Task `json:"tasks"`
}

// Manager tracks batches and tasks in MongoDB. Only one batch may be
// active per process; workers claim tasks with atomic pending-to-running
// updates so the same URL is never scraped twice.
type Manager struct {
	batches *driver.Collection
	tasks   *driver.Collection
	log     *logger.Logger

	mu            sync.Mutex
	activeBatchID string
	cancelled     bool
}

func NewManager(m *mongo.Service) *Manager {
	return &Manager{
		batches: m.Collection("scrape_batches"),
		tasks:   m.Collection("scrape_tasks"),
		log:     logger.New("batch"),
	}
}

func (m *Manager) EnsureIndexes(ctx context.Context) error {
	_, err := m.batches.Indexes().CreateMany(ctx, []driver.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("batch indexes: %w", err)
	}
	_, err = m.tasks.Indexes().CreateMany(ctx, []driver.IndexModel{
		{Keys: bson.D{{Key: "batch_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "url", Value: 1}}},
		{Keys: bson.D{{Key: "batch_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("task indexes: %w", err)
	}
	return nil
}

func newBatchID(now time.Time) string {
	return fmt.Sprintf("batch_%s_%s", now.Format("20060102_150405"), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func newTaskID() string {
	return "task_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// CreateBatch registers a batch and one task per URL. It fails if
// another batch is already active.
func (m *Manager) CreateBatch(ctx context.Context, urls []string, workers int, priority int) (*Batch, error) {
	m.mu.Lock()
	if m.activeBatchID != "" {
		active := m.activeBatchID
		m.mu.Unlock()
		return nil, fmt.Errorf("batch %s is already running", active)
	}
	now := time.Now()
	batchID := newBatchID(now)
	m.activeBatchID = batchID
	m.cancelled = false
	m.mu.Unlock()

	batch := &Batch{
		BatchID:          batchID,
		Status:           BatchPending,
		TotalURLs:        len(urls),
		PendingURLs:      len(urls),
		WorkersAllocated: workers,
		Priority:         priority,
		CreatedAt:        now,
	}
	if _, err := m.batches.InsertOne(ctx, batch); err != nil {
		m.clearActive(batchID)
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	docs := make([]interface{}, 0, len(urls))
	for i, u := range urls {
		docs = append(docs, Task{
			TaskID:    newTaskID(),
			BatchID:   batchID,
			URL:       u,
			Status:    TaskPending,
			Order:     i,
			CreatedAt: time.Now(),
		})
	}
	if len(docs) > 0 {
		if _, err := m.tasks.InsertMany(ctx, docs); err != nil {
			m.clearActive(batchID)
			return nil, fmt.Errorf("insert tasks: %w", err)
		}
	}

	m.log.LogInfof("Created batch %s with %d tasks", batchID, len(urls))
	return batch, nil
}

func (m *Manager) clearActive(batchID string) {
	m.mu.Lock()
	if m.activeBatchID == batchID {
		m.activeBatchID = ""
		m.cancelled = false
	}
	m.mu.Unlock()
}

func (m *Manager) StartBatch(ctx context.Context, batchID string) error {
	now := time.Now()
	_, err := m.batches.UpdateOne(ctx,
		bson.M{"batch_id": batchID},
		bson.M{"$set": bson.M{"status": BatchRunning, "started_at": now}})
	return err
}

// ClaimNextTasks atomically flips up to count pending tasks to running,
// in submission order, and adjusts the batch counters.
func (m *Manager) ClaimNextTasks(ctx context.Context, batchID string, count int) ([]Task, error) {
	var claimed []Task
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "order", Value: 1}}).
		SetReturnDocument(options.After)

	for i := 0; i < count; i++ {
		var task Task
		err := m.tasks.FindOneAndUpdate(ctx,
			bson.M{"batch_id": batchID, "status": TaskPending},
			bson.M{"$set": bson.M{"status": TaskRunning, "started_at": time.Now()}},
			opts,
		).Decode(&task)
		if err == driver.ErrNoDocuments {
			break
		}
		if err != nil {
			return claimed, fmt.Errorf("claim task: %w", err)
		}
		claimed = append(claimed, task)
	}

	if len(claimed) > 0 {
		_, err := m.batches.UpdateOne(ctx,
			bson.M{"batch_id": batchID},
			bson.M{"$inc": bson.M{"pending_urls": -len(claimed), "running_urls": len(claimed)}})
		if err != nil {
			return claimed, fmt.Errorf("update batch counters: %w", err)
		}
	}
	return claimed, nil
}

func (m *Manager) AssignWorker(ctx context.Context, taskID string, workerID int) {
	_, err := m.tasks.UpdateOne(ctx,
		bson.M{"task_id": taskID},
		bson.M{"$set": bson.M{"worker_id": workerID}})
	if err != nil {
		m.log.LogWarnf("Assign worker failed for %s: %v", taskID, err)
	}
}

// CompleteTask finalises one task and rolls its outcome into the batch
// counters. A non-empty errMsg marks the task failed.
func (m *Manager) CompleteTask(ctx context.Context, taskID string, jobsFound int, result map[string]interface{}, errMsg string) error {
	status := TaskCompleted
	if errMsg != "" {
		status = TaskFailed
	}

	set := bson.M{
		"status":           status,
		"completed_at":     time.Now(),
		"jobs_found":       jobsFound,
		"progress_percent": 100.0,
		"result":           result,
	}
	if errMsg != "" {
		set["error"] = errMsg
	}

	var task Task
	err := m.tasks.FindOneAndUpdate(ctx,
		bson.M{"task_id": taskID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&task)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}

	inc := bson.M{"running_urls": -1}
	if errMsg != "" {
		inc["failed_urls"] = 1
	} else {
		inc["completed_urls"] = 1
		inc["total_jobs_found"] = jobsFound
	}
	_, err = m.batches.UpdateOne(ctx, bson.M{"batch_id": task.BatchID}, bson.M{"$inc": inc})
	return err
}

func (m *Manager) UpdateTaskProgress(ctx context.Context, taskID string, percent float64, jobsFound int) {
	set := bson.M{"progress_percent": percent}
	if jobsFound > 0 {
		set["jobs_found"] = jobsFound
	}
	_, err := m.tasks.UpdateOne(ctx, bson.M{"task_id": taskID}, bson.M{"$set": set})
	if err != nil {
		m.log.LogWarnf("Progress update failed for %s: %v", taskID, err)
	}
}

// CompleteBatch derives the final batch status from its counters and
// releases the active-batch slot.
func (m *Manager) CompleteBatch(ctx context.Context, batchID string, errMsg string) error {
	batch, err := m.GetBatch(ctx, batchID)
	if err != nil {
		m.clearActive(batchID)
		return err
	}

	status := finalStatus(batch, errMsg)
	set := bson.M{
		"status":         status,
		"completed_at":   time.Now(),
		"workers_active": 0,
	}
	if errMsg != "" {
		set["error"] = errMsg
	}
	_, err = m.batches.UpdateOne(ctx, bson.M{"batch_id": batchID}, bson.M{"$set": set})

	m.clearActive(batchID)
	m.log.LogInfof("Batch %s completed with status %s", batchID, status)
	return err
}

func finalStatus(b *Batch, errMsg string) BatchStatus {
	switch {
	case errMsg != "":
		return BatchFailed
	case b.FailedURLs > 0 && b.CompletedURLs > 0:
		return BatchPartiallyCompleted
	case b.TotalURLs > 0 && b.FailedURLs == b.TotalURLs:
		return BatchFailed
	default:
		return BatchCompleted
	}
}

// RequestCancellation cancels the pending tasks of the given batch, or
// the active batch when batchID is empty. Running tasks finish their
// current URL; workers observe the flag and stop claiming.
func (m *Manager) RequestCancellation(ctx context.Context, batchID string) (int, error) {
	m.mu.Lock()
	if batchID == "" {
		batchID = m.activeBatchID
	}
	if batchID == "" {
		m.mu.Unlock()
		return 0, nil
	}
	m.cancelled = true
	m.mu.Unlock()

	res, err := m.tasks.UpdateMany(ctx,
		bson.M{"batch_id": batchID, "status": TaskPending},
		bson.M{"$set": bson.M{"status": TaskCancelled, "completed_at": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("cancel tasks: %w", err)
	}
	cancelled := int(res.ModifiedCount)

	_, err = m.batches.UpdateOne(ctx,
		bson.M{"batch_id": batchID},
		bson.M{
			"$set": bson.M{"status": BatchCancelled, "pending_urls": 0},
			"$inc": bson.M{"completed_urls": cancelled},
		})
	if err != nil {
		return cancelled, err
	}

	m.log.LogInfof("Cancelled %d pending tasks in batch %s", cancelled, batchID)
	return cancelled, nil
}

func (m *Manager) IsCancellationRequested() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

func (m *Manager) ActiveBatchID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeBatchID
}

func (m *Manager) GetBatch(ctx context.Context, batchID string) (*Batch, error) {
	var batch Batch
	err := m.batches.FindOne(ctx, bson.M{"batch_id": batchID}).Decode(&batch)
	if err == driver.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &batch, nil
}

func (m *Manager) GetBatchTasks(ctx context.Context, batchID string, status TaskStatus, limit int64) ([]Task, error) {
	filter := bson.M{"batch_id": batchID}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := m.tasks.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var tasks []Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetProgress reports the active batch with its first 50 tasks.
func (m *Manager) GetProgress(ctx context.Context) (*Progress, error) {
	batchID := m.ActiveBatchID()
	if batchID == "" {
		return &Progress{Tasks: []Task{}}, nil
	}
	batch, err := m.GetBatch(ctx, batchID)
	if err != nil || batch == nil {
		return &Progress{Tasks: []Task{}}, err
	}
	tasks, err := m.GetBatchTasks(ctx, batchID, "", 50)
	if err != nil {
		return nil, err
	}
	return &Progress{
		IsRunning: batch.Status == BatchRunning,
		BatchInfo: batch,
		Tasks:     tasks,
	}, nil
}

func (m *Manager) UpdateWorkersActive(ctx context.Context, batchID string, count int) {
	_, err := m.batches.UpdateOne(ctx,
		bson.M{"batch_id": batchID},
		bson.M{"$set": bson.M{"workers_active": count}})
	if err != nil {
		m.log.LogWarnf("Worker count update failed for %s: %v", batchID, err)
	}
}

func (m *Manager) RecentBatches(ctx context.Context, limit int64) ([]Batch, error) {
	cursor, err := m.batches.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent batches: %w", err)
	}
	var batches []Batch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// CleanupStaleBatches fails batches that have sat pending or running
// for longer than maxAge.
func (m *Manager) CleanupStaleBatches(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	cursor, err := m.batches.Find(ctx, bson.M{
		"status":     bson.M{"$in": []BatchStatus{BatchRunning, BatchPending}},
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return fmt.Errorf("find stale batches: %w", err)
	}
	var stale []Batch
	if err := cursor.All(ctx, &stale); err != nil {
		return err
	}
	for _, b := range stale {
		if err := m.CompleteBatch(ctx, b.BatchID, "Batch timed out and was cleaned up"); err != nil {
			m.log.LogWarnf("Stale cleanup failed for %s: %v", b.BatchID, err)
		}
	}
	return nil
}
