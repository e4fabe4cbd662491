package data

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/sector-rotation/pkg/types"
)

// FetchJob is one series to load
type FetchJob struct {
	ID    string
	Start time.Time
	End   time.Time
}

// FetchResult is the outcome of a FetchJob
type FetchResult struct {
	ID       string
	Series   types.Series
	Duration time.Duration
	Error    error
}

// WorkerPool loads series from a source in parallel
type WorkerPool struct {
	source      OHLCVSource
	workerCount int
	jobQueue    chan FetchJob
	resultQueue chan FetchResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorkerPool creates a pool of workerCount workers (NumCPU when not positive)
func NewWorkerPool(ctx context.Context, source OHLCVSource, workerCount, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		source:      source,
		workerCount: workerCount,
		jobQueue:    make(chan FetchJob, jobBufferSize),
		resultQueue: make(chan FetchResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the workers
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the job queue, waits for the workers to drain it and closes the result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob queues a job, failing once the pool context is cancelled
func (wp *WorkerPool) SubmitJob(job FetchJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the result channel for collecting completed jobs
func (wp *WorkerPool) GetResults() <-chan FetchResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job FetchJob) FetchResult {
	startTime := time.Now()
	series, err := wp.source.FetchOHLCV(job.ID, job.Start, job.End)
	return FetchResult{
		ID:       job.ID,
		Series:   series,
		Duration: time.Since(startTime),
		Error:    err,
	}
}

// FetchAll runs jobs through a fresh pool and returns the results keyed by id. Jobs not run
// because ctx was cancelled are absent from the map and ctx's error is returned.
func FetchAll(ctx context.Context, source OHLCVSource, workers int, jobs []FetchJob) (map[string]FetchResult, error) {
	wp := NewWorkerPool(ctx, source, workers, len(jobs))
	wp.Start()

	var submitErr error
	go func() {
		for _, job := range jobs {
			if err := wp.SubmitJob(job); err != nil {
				submitErr = err
				break
			}
		}
		wp.Stop()
	}()

	results := make(map[string]FetchResult, len(jobs))
	for r := range wp.GetResults() {
		results[r.ID] = r
	}
	if submitErr != nil {
		return results, submitErr
	}
	return results, ctx.Err()
}
