package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randoscope/randoscope/internal/types"
)

// FetchJob represents a selection fetch request.
type FetchJob struct {
	Area       types.AreaSelection
	Keys       []string
	ResultChan chan FetchResult
}

// FetchResult contains the result of a selection fetch operation.
type FetchResult struct {
	Data  *SelectionData
	Error error
}

// FetchQueueStatus contains current status of the fetch queue.
type FetchQueueStatus struct {
	// ActiveFetches is the number of currently in-flight fetch operations
	ActiveFetches int `json:"active_fetches"`
	// QueuedFetches is the number of jobs waiting in the queue
	QueuedFetches int `json:"queued_fetches"`
	// TotalCompleted is the total number of completed fetches since start
	TotalCompleted int64 `json:"total_completed"`
	// TotalFailed is the total number of failed fetches since start
	TotalFailed int64 `json:"total_failed"`
}

// FetchQueueConfig configures the fetch queue behavior.
type FetchQueueConfig struct {
	// Workers is the number of concurrent fetch workers (default: 2)
	Workers int
	// QueueSize is the maximum number of pending fetch jobs (default: 100)
	QueueSize int
	// Logger for fetch operations
	Logger *slog.Logger
}

// DefaultFetchQueueConfig returns sensible defaults.
func DefaultFetchQueueConfig() FetchQueueConfig {
	return FetchQueueConfig{
		Workers:   2,
		QueueSize: 100,
		Logger:    slog.Default(),
	}
}

// FetchQueue bounds concurrent Overpass selection fetches. Selections can
// cover whole departements, so letting every request hit the upstream at
// once would get the shared endpoint rate limited.
type FetchQueue struct {
	ds        *OverpassDataSource
	jobs      chan FetchJob
	cfg       FetchQueueConfig
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once

	activeFetches  atomic.Int32
	totalCompleted atomic.Int64
	totalFailed    atomic.Int64
}

// NewFetchQueue creates a new fetch queue with the given datasource and config.
func NewFetchQueue(ds *OverpassDataSource, cfg FetchQueueConfig) *FetchQueue {
	if cfg.Workers < 1 {
		cfg.Workers = 2
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FetchQueue{
		ds:     ds,
		jobs:   make(chan FetchJob, cfg.QueueSize),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing fetch jobs with the configured number of workers.
func (fq *FetchQueue) Start() {
	fq.startOnce.Do(func() {
		fq.cfg.Logger.Info("starting fetch queue workers", "workers", fq.cfg.Workers)
		for i := 0; i < fq.cfg.Workers; i++ {
			fq.wg.Add(1)
			go fq.worker(i)
		}
	})
}

// Stop gracefully shuts down the fetch queue.
func (fq *FetchQueue) Stop() {
	fq.cancel()
	close(fq.jobs)
	fq.wg.Wait()
}

// Submit adds a fetch job to the queue and returns immediately.
// The result will be sent to the job's ResultChan when complete.
func (fq *FetchQueue) Submit(job FetchJob) error {
	select {
	case fq.jobs <- job:
		return nil
	case <-fq.ctx.Done():
		return fmt.Errorf("fetch queue is shutting down")
	default:
		return fmt.Errorf("fetch queue is full")
	}
}

// SubmitAndWait submits a fetch job and blocks until the result is available.
func (fq *FetchQueue) SubmitAndWait(ctx context.Context, area types.AreaSelection, keys []string) (FetchResult, error) {
	resultChan := make(chan FetchResult, 1)
	job := FetchJob{
		Area:       area,
		Keys:       keys,
		ResultChan: resultChan,
	}

	select {
	case fq.jobs <- job:
	case <-ctx.Done():
		return FetchResult{}, ctx.Err()
	case <-fq.ctx.Done():
		return FetchResult{}, fmt.Errorf("fetch queue is shutting down")
	}

	select {
	case result := <-resultChan:
		return result, nil
	case <-ctx.Done():
		return FetchResult{}, ctx.Err()
	}
}

// FetchSelection routes a fetch through the queue, bounding Overpass
// concurrency no matter how many selections are in flight. It satisfies the
// same contract as OverpassDataSource.FetchSelection.
func (fq *FetchQueue) FetchSelection(ctx context.Context, area types.AreaSelection, keys []string) (*SelectionData, error) {
	result, err := fq.SubmitAndWait(ctx, area, keys)
	if err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return result.Data, nil
}

// Status returns the current status of the fetch queue.
func (fq *FetchQueue) Status() FetchQueueStatus {
	return FetchQueueStatus{
		ActiveFetches:  int(fq.activeFetches.Load()),
		QueuedFetches:  len(fq.jobs),
		TotalCompleted: fq.totalCompleted.Load(),
		TotalFailed:    fq.totalFailed.Load(),
	}
}

func (fq *FetchQueue) worker(id int) {
	defer fq.wg.Done()
	log := fq.cfg.Logger.With("worker_id", id)
	log.Debug("fetch worker started")

	for {
		select {
		case <-fq.ctx.Done():
			log.Debug("fetch worker stopping")
			return
		case job, ok := <-fq.jobs:
			if !ok {
				log.Debug("fetch worker channel closed")
				return
			}
			result := fq.doFetch(fq.ctx, job)
			if job.ResultChan != nil {
				select {
				case job.ResultChan <- result:
				default:
					log.Warn("result channel full or closed")
				}
			}
		}
	}
}

func (fq *FetchQueue) doFetch(ctx context.Context, job FetchJob) FetchResult {
	fq.activeFetches.Add(1)
	defer fq.activeFetches.Add(-1)

	start := time.Now()
	log := fq.cfg.Logger.With(
		"ring_points", len(job.Area.Ring),
		"keys", len(job.Keys),
	)

	log.Info("fetching selection data from Overpass API")

	data, err := fq.ds.FetchSelection(ctx, job.Area, job.Keys)
	elapsed := time.Since(start)

	if err != nil {
		fq.totalFailed.Add(1)
		log.Error("fetch failed",
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		return FetchResult{Error: err}
	}

	fq.totalCompleted.Add(1)
	log.Info("fetch completed",
		"duration_ms", elapsed.Milliseconds(),
		"nodes", len(data.Result.Nodes),
		"ways", len(data.Result.Ways),
		"relations", len(data.Result.Relations),
	)

	return FetchResult{Data: data}
}
