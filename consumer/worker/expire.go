package worker

import (
	"context"
	"time"

	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/repository"
)

const (
	sweepInterval = 5 * time.Minute
	sweepBatch    = 100
)

// ExpireSweeper removes pending image rows whose presigned upload window
// closed without a completion call. The store object, if the client did
// upload without confirming, is deleted best-effort first.
type ExpireSweeper struct {
	infra      *infra.Infra
	repository *repository.Repository
}

func NewExpireSweeper(infra *infra.Infra, repo *repository.Repository) *ExpireSweeper {
	return &ExpireSweeper{
		infra:      infra,
		repository: repo,
	}
}

func (s *ExpireSweeper) Start(ctx context.Context) {
	s.infra.Logger.InfoWithContextf(ctx, "[Expire Sweeper] Started, interval %s", sweepInterval)

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.infra.Logger.InfoWithContextf(ctx, "[Expire Sweeper] Shutting down...")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *ExpireSweeper) sweep(ctx context.Context) {
	expired, err := s.repository.ImageRepo.FindExpiredPending(ctx, time.Now(), sweepBatch)
	if err != nil {
		s.infra.Logger.ErrorWithContextf(ctx, err, "[Expire Sweeper] Failed to load expired pending rows: %v", err)
		return
	}

	if len(expired) == 0 {
		return
	}

	removed := 0
	for i := range expired {
		image := &expired[i]

		// Best-effort: the client may have uploaded the object and then
		// never called complete.
		if err := s.infra.Minio.DeleteObject(ctx, image.StorageKey); err != nil && !isNotFound(err) {
			s.infra.Logger.WarningWithContextf(ctx, "[Expire Sweeper] Failed to delete store object %s, keeping row for next sweep: %v", image.StorageKey, err)
			continue
		}

		if err := s.repository.ImageRepo.Delete(ctx, image.ID); err != nil {
			s.infra.Logger.ErrorWithContextf(ctx, err, "[Expire Sweeper] Failed to delete expired row %s: %v", image.ID, err)
			continue
		}
		removed++
	}

	s.infra.Logger.InfoWithContextf(ctx, "[Expire Sweeper] Removed %d of %d expired pending uploads", removed, len(expired))
}
