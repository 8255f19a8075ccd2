package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pathwise/compass-backend/internal/config"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
)

// ProgressWorker consumes the persist_progress_queue outbox and writes
// attempt snapshots to PostgreSQL. Snapshots are self-contained, so a
// requeued item landing behind a newer one is harmless.
type ProgressWorker struct {
	attempts *repository.AttemptRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewProgressWorker creates a new ProgressWorker.
func NewProgressWorker(attempts *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *ProgressWorker {
	return &ProgressWorker{
		attempts: attempts,
		rdb:      rdb,
		log:      log.With().Str("component", "progress_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ProgressWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining snapshots before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ProgressWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistProgressQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.persist(ctx, []byte(result[1])); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistProgressQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ProgressWorker) persist(ctx context.Context, raw []byte) error {
	var snap model.ProgressSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A malformed snapshot never becomes valid; log and drop.
		w.log.Error().Err(err).Msg("Unmarshal error, dropping snapshot")
		return nil
	}
	err := w.attempts.UpdateProgress(ctx, snap)
	if errors.Is(err, repository.ErrAttemptNotFound) {
		// Attempt finished or was abandoned while the snapshot sat in
		// the queue; the terminal write already superseded it.
		return nil
	}
	return err
}

// drain processes all remaining snapshots in the queue before shutdown.
func (w *ProgressWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistProgressQueue).Result()
		if err != nil {
			break
		}
		if err := w.persist(ctx, []byte(result)); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error, snapshot lost")
			continue
		}
		drained++
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining snapshots")
	}
}
