package batch

import (
	"context"
	"sync"
	"time"

	"github.com/standardforever/job-scrapper/internal/core/jobstore"
	"github.com/standardforever/job-scrapper/internal/logger"
)

// ScrapeFunc scrapes one URL and returns the job documents it found.
type ScrapeFunc func(ctx context.Context, url string) ([]map[string]interface{}, error)

type taskResult struct {
	taskID  string
	url     string
	jobs    []map[string]interface{}
	success bool
}

// ExecutionResult summarises one batch run.
type ExecutionResult struct {
	BatchID     string     `json:"batch_id"`
	WorkersUsed int        `json:"workers_used"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
}

// Executor runs a batch's tasks across a pool of workers. Each worker
// claims tasks one at a time from the manager; a separate goroutine
// drains results into the job store so slow writes never stall
// scraping.
type Executor struct {
	manager *Manager
	store   *jobstore.Store
	scrape  ScrapeFunc
	log     *logger.Logger

	mu      sync.Mutex
	running bool
}

func NewExecutor(manager *Manager, store *jobstore.Store, scrape ScrapeFunc) *Executor {
	return &Executor{
		manager: manager,
		store:   store,
		scrape:  scrape,
		log:     logger.New("batch-executor"),
	}
}

func (e *Executor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Execute runs the batch to completion. It blocks until every task has
// been claimed and finished or the batch is cancelled, then finalises
// the batch record.
func (e *Executor) Execute(ctx context.Context, batchID string, numWorkers int) *ExecutionResult {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return &ExecutionResult{BatchID: batchID, Error: "executor is already running"}
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	result := &ExecutionResult{
		BatchID:     batchID,
		WorkersUsed: numWorkers,
		StartedAt:   time.Now(),
	}

	if err := e.manager.StartBatch(ctx, batchID); err != nil {
		result.Error = err.Error()
		_ = e.manager.CompleteBatch(ctx, batchID, err.Error())
		return result
	}
	e.manager.UpdateWorkersActive(ctx, batchID, numWorkers)
	e.log.LogInfof("Starting batch %s with %d workers", batchID, numWorkers)

	results := make(chan taskResult, numWorkers*2)

	var workers sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		workers.Add(1)
		go func(workerID int) {
			defer workers.Done()
			e.worker(ctx, workerID, batchID, results)
		}(i)
	}

	var processor sync.WaitGroup
	processor.Add(1)
	go func() {
		defer processor.Done()
		e.processResults(ctx, results)
	}()

	workers.Wait()
	close(results)
	processor.Wait()

	if err := e.manager.CompleteBatch(ctx, batchID, ""); err != nil {
		result.Error = err.Error()
		return result
	}

	now := time.Now()
	result.CompletedAt = &now
	result.Success = true
	e.log.LogSuccessf("Batch %s execution completed", batchID)
	return result
}

func (e *Executor) worker(ctx context.Context, workerID int, batchID string, results chan<- taskResult) {
	e.log.LogInfof("Worker %d started for batch %s", workerID, batchID)

	for {
		if ctx.Err() != nil || e.manager.IsCancellationRequested() {
			e.log.LogInfof("Worker %d stopping", workerID)
			return
		}

		tasks, err := e.manager.ClaimNextTasks(ctx, batchID, 1)
		if err != nil {
			e.log.LogError("Worker claim failed", err)
			return
		}
		if len(tasks) == 0 {
			return
		}
		task := tasks[0]
		e.manager.AssignWorker(ctx, task.TaskID, workerID)
		e.log.LogInfof("Worker %d processing %s", workerID, task.URL)

		start := time.Now()
		jobs, scrapeErr := e.scrape(ctx, task.URL)
		duration := time.Since(start)

		if scrapeErr != nil {
			e.log.LogErrorf("Worker %d error on %s: %v", workerID, task.URL, scrapeErr)
			if err := e.manager.CompleteTask(ctx, task.TaskID, 0, nil, scrapeErr.Error()); err != nil {
				e.log.LogError("Complete task failed", err)
			}
			results <- taskResult{taskID: task.TaskID, url: task.URL}
		} else {
			taskInfo := map[string]interface{}{
				"duration_seconds": duration.Seconds(),
				"jobs_count":       len(jobs),
			}
			if err := e.manager.CompleteTask(ctx, task.TaskID, len(jobs), taskInfo, ""); err != nil {
				e.log.LogError("Complete task failed", err)
			}
			results <- taskResult{taskID: task.TaskID, url: task.URL, jobs: jobs, success: true}
			e.log.LogInfof("Worker %d completed %s: %d jobs found", workerID, task.URL, len(jobs))
		}

		// Brief pause keeps workers from hammering the same site
		// back to back.
		time.Sleep(500 * time.Millisecond)
	}
}

func (e *Executor) processResults(ctx context.Context, results <-chan taskResult) {
	totalSaved := 0
	for r := range results {
		if !r.success || len(r.jobs) == 0 {
			continue
		}
		totalSaved += e.store.SaveJobs(ctx, r.jobs)
	}
	e.log.LogInfof("Result processor finished, total jobs saved: %d", totalSaved)
}
