package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueBlobCleanup = "jobs:blob_cleanup"

// maxCleanupAttempts caps janitor retries per job; after that the paths are
// logged for manual removal and the job is dropped.
const maxCleanupAttempts = 5

// CleanupJob asks the janitor to remove orphaned blobs — uploads whose
// metadata insert failed AND whose immediate compensating delete also failed.
// The originating request has already reported both errors to the caller;
// this queue only keeps the bucket from accumulating unreferenced objects.
type CleanupJob struct {
	Paths    []string `json:"paths"`
	Attempts int      `json:"attempts"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueBlobCleanup pushes orphaned blob paths onto the cleanup queue.
func (d *Dispatcher) EnqueueBlobCleanup(ctx context.Context, paths ...string) error {
	return d.enqueue(ctx, QueueBlobCleanup, CleanupJob{Paths: paths})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job CleanupJob) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the cleanup queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, store infra.ObjectStorage, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, store, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, store infra.ObjectStorage, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueBlobCleanup).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}

			var job CleanupJob
			if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
				log.Error().Err(err).Str("raw", result[1]).Msg("malformed cleanup job discarded")
				continue
			}

			handleCleanup(ctx, rdb, store, job)
		}
	}
}

func handleCleanup(ctx context.Context, rdb *redis.Client, store infra.ObjectStorage, job CleanupJob) {
	if store == nil {
		log.Warn().Strs("paths", job.Paths).Msg("storage disabled, cleanup job dropped")
		return
	}

	err := store.Remove(ctx, job.Paths...)
	if err == nil {
		log.Info().Strs("paths", job.Paths).Msg("orphaned blobs removed")
		return
	}

	job.Attempts++
	if job.Attempts >= maxCleanupAttempts {
		log.Error().Err(err).Strs("paths", job.Paths).
			Int("attempts", job.Attempts).
			Msg("cleanup exhausted, blobs require manual removal")
		return
	}

	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		log.Error().Err(mErr).Msg("re-encode cleanup job")
		return
	}
	if pushErr := rdb.LPush(ctx, QueueBlobCleanup, encoded).Err(); pushErr != nil {
		log.Error().Err(pushErr).Strs("paths", job.Paths).Msg("re-enqueue cleanup job")
	}
}
