package batch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/standardforever/job-scrapper/internal/core/jobstore"
	"github.com/standardforever/job-scrapper/internal/core/resources"
	"github.com/standardforever/job-scrapper/internal/logger"
	tasks "github.com/standardforever/job-scrapper/internal/platform/tasks"
)

const TaskTypeBatch = tasks.TaskTypeBatchScrape

type batchTaskPayload struct {
	BatchID string `json:"batch_id"`
	Workers int    `json:"workers"`
}

// Service ties batch orchestration together: it sizes the worker pool
// against host resources, records the batch, and hands execution to the
// task queue so the HTTP request returns immediately.
type Service struct {
	manager    *Manager
	resources  *resources.Manager
	store      *jobstore.Store
	tasks      *tasks.Client
	scrape     ScrapeFunc
	maxRetries int
	log        *logger.Logger
}

func NewService(manager *Manager, res *resources.Manager, store *jobstore.Store, taskClient *tasks.Client, scrape ScrapeFunc, maxRetries int) *Service {
	return &Service{
		manager:    manager,
		resources:  res,
		store:      store,
		tasks:      taskClient,
		scrape:     scrape,
		maxRetries: maxRetries,
		log:        logger.New("BatchService"),
	}
}

func (s *Service) Manager() *Manager             { return s.manager }
func (s *Service) Resources() *resources.Manager { return s.resources }

// StartBatch validates capacity, creates the batch record, and enqueues
// execution. It returns the batch and the worker count granted.
func (s *Service) StartBatch(ctx context.Context, urls []string, maxWorkers, priority int) (*Batch, int, error) {
	if len(urls) == 0 {
		return nil, 0, fmt.Errorf("no urls provided")
	}

	if ok, reason := s.resources.CanAcceptBatch(); !ok {
		return nil, 0, fmt.Errorf("server busy: %s", reason)
	}

	workers := s.resources.Allocate(maxWorkers)
	if workers == 0 {
		return nil, 0, fmt.Errorf("could not allocate workers, server resources exhausted")
	}

	batch, err := s.manager.CreateBatch(ctx, urls, workers, priority)
	if err != nil {
		s.resources.Release(workers)
		return nil, 0, err
	}

	payload, _ := json.Marshal(batchTaskPayload{BatchID: batch.BatchID, Workers: workers})
	if err := s.tasks.Enqueue(asynq.NewTask(TaskTypeBatch, payload), "default", s.maxRetries); err != nil {
		s.resources.Release(workers)
		_ = s.manager.CompleteBatch(ctx, batch.BatchID, "failed to enqueue batch task")
		return nil, 0, fmt.Errorf("enqueue batch: %w", err)
	}

	s.log.LogInfof("Batch %s enqueued with %d workers", batch.BatchID, workers)
	return batch, workers, nil
}

// HandleBatchTask is the asynq handler that actually runs a batch.
func (s *Service) HandleBatchTask(ctx context.Context, task *asynq.Task) error {
	var payload batchTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode batch payload: %w", err)
	}

	defer s.resources.Release(payload.Workers)

	executor := NewExecutor(s.manager, s.store, s.scrape)
	result := executor.Execute(ctx, payload.BatchID, payload.Workers)
	if !result.Success {
		return fmt.Errorf("batch %s failed: %s", payload.BatchID, result.Error)
	}
	return nil
}

// Stop cancels the active batch's pending tasks.
func (s *Service) Stop(ctx context.Context) (int, error) {
	if s.manager.ActiveBatchID() == "" {
		return 0, fmt.Errorf("no active batch to stop")
	}
	return s.manager.RequestCancellation(ctx, "")
}
