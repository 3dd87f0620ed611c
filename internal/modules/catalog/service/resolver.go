package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stillpoint/internal/modules/catalog/domain"
	catalogout "stillpoint/internal/modules/catalog/port/out"
)

// ClipResolver fetches clips for candidate configurations and selects the
// first playable one. Fetch failures degrade to zero clips for that candidate.
type ClipResolver struct {
	clips  catalogout.ClipSource
	logger *zap.Logger
}

func NewClipResolver(clips catalogout.ClipSource, logger *zap.Logger) *ClipResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClipResolver{clips: clips, logger: logger}
}

// Resolve never fails: every fetch is joined before selection, and an empty
// result falls back to the synthetic configuration for durationMinutes.
func (r *ClipResolver) Resolve(ctx context.Context, activity domain.ActivityType, candidates []domain.Configuration, durationMinutes int) domain.Selection {
	perConfig := make([][]domain.Clip, len(candidates))

	var eg errgroup.Group
	for i, cfg := range candidates {
		eg.Go(func() error {
			clips, err := r.clips.ListClipsForConfiguration(ctx, cfg.ID)
			if err != nil {
				if !errors.Is(err, domain.ErrClipFetch) {
					err = fmt.Errorf("%w: configuration %s: %w", domain.ErrClipFetch, cfg.ID, err)
				}
				r.logger.Warn("clip fetch failed",
					zap.String("configuration_id", cfg.ID),
					zap.Error(err))
				return nil
			}
			perConfig[i] = clips
			return nil
		})
	}
	_ = eg.Wait()

	flattened := make([]domain.ResolvedClip, 0)
	for i, cfg := range candidates {
		for _, clip := range perConfig[i] {
			flattened = append(flattened, domain.ResolvedClip{
				Clip:                  clip,
				SourceConfigurationID: cfg.ID,
				KarmaPoints:           cfg.KarmaPoints,
			})
		}
	}

	selection := domain.Selection{
		Candidates:                candidates,
		Clips:                     flattened,
		NoConfigurationForEmotion: len(candidates) == 0,
	}
	if len(flattened) == 0 {
		selection.Configuration = domain.SyntheticConfiguration(activity, durationMinutes)
		selection.Synthetic = true
		r.logger.Debug("no playable clip, using synthetic configuration",
			zap.Int("candidates", len(candidates)),
			zap.Int("karma_points", durationMinutes))
		return selection
	}

	first := flattened[0]
	selection.Clip = &first
	for _, cfg := range candidates {
		if cfg.ID == first.SourceConfigurationID {
			selection.Configuration = cfg
			break
		}
	}
	return selection
}
