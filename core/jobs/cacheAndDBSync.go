package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dryack/dndice/core/dsl"
	"github.com/rs/zerolog/log"
)

const syncLockKey = "sync_job_lock"

// SyncJob copies cached statistics into the database so they outlive cache eviction.
type SyncJob struct {
	cache    dsl.Cache
	db       dsl.Database
	interval time.Duration
}

func NewSyncJob(cache dsl.Cache, db dsl.Database, interval time.Duration) *SyncJob {
	return &SyncJob{
		cache:    cache,
		db:       db,
		interval: interval,
	}
}

// Start runs a sync every interval until ctx is done. Only one instance
// sharing the cache syncs per interval.
func (j *SyncJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !j.shouldRunSync(ctx) {
				log.Debug().Msg("skipping sync job run")
				continue
			}
			if _, err := j.Sync(ctx); err != nil {
				log.Warn().Err(err).Msg("cache to database sync failed")
			}
		}
	}
}

func (j *SyncJob) shouldRunSync(ctx context.Context) bool {
	// Held slightly longer than one interval so a slow run is not overlapped.
	ok, err := j.cache.Lock(ctx, syncLockKey, j.interval+time.Minute)
	if err != nil {
		log.Warn().Err(err).Msg("error acquiring sync lock")
		return false
	}
	return ok
}

// Sync writes every cached entry to the database and returns how many were
// written. Entries that expired between listing and reading are skipped.
func (j *SyncJob) Sync(ctx context.Context) (int, error) {
	log.Info().Msg("starting cache to database sync")

	keys, err := j.cache.Keys(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	var errs []error
	for _, key := range keys {
		result, err := j.cache.Get(ctx, key)
		if errors.Is(err, dsl.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := j.db.Set(ctx, key, result); err != nil {
			errs = append(errs, err)
			continue
		}
		synced++
	}

	log.Info().Int("synced", synced).Int("keys", len(keys)).Msg("cache to database sync completed")
	return synced, errors.Join(errs...)
}
