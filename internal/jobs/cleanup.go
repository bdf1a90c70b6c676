package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/linkvault/companion-core/internal/repository"
)

// CleanupJob periodically removes pending pairing requests older than
// the pairing TTL. Approved pairings are kept.
type CleanupJob struct {
	pairingRepo repository.PairingRepository
	interval    time.Duration
	ttl         time.Duration
	done        chan struct{}
}

func NewCleanupJob(pairingRepo repository.PairingRepository, interval, ttl time.Duration) *CleanupJob {
	return &CleanupJob{
		pairingRepo: pairingRepo,
		interval:    interval,
		ttl:         ttl,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("ttl", j.ttl).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.pairingRepo.DeleteStalePending(ctx, time.Now().Add(-j.ttl))
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup stale pairing requests")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up stale pairing requests")
	}
}
