package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"stillpoint/internal/modules/catalog/domain"
	"stillpoint/internal/modules/catalog/dto"
	catalogin "stillpoint/internal/modules/catalog/port/in"
	catalogout "stillpoint/internal/modules/catalog/port/out"
	"stillpoint/internal/modules/catalog/service"
	apperrors "stillpoint/internal/platform/errors"
)

type Interactor struct {
	configs  catalogout.ConfigurationSource
	resolver *service.ClipResolver
	logger   *zap.Logger
}

func NewInteractor(configs catalogout.ConfigurationSource, resolver *service.ClipResolver, logger *zap.Logger) catalogin.Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{configs: configs, resolver: resolver, logger: logger}
}

func (i *Interactor) ListConfigurations(ctx context.Context, input dto.ListInput) ([]dto.ConfigurationOutput, error) {
	activity := domain.ActivityType(input.ActivityType)
	if err := activity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	configs, err := i.configs.ListConfigurations(ctx, activity, input.CategoryID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConfigurationOutput, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, toConfigurationOutput(cfg, false))
	}
	return out, nil
}

// Select runs the matcher and the clip resolver for one settled input.
// A catalog outage degrades to an empty catalog instead of failing.
func (i *Interactor) Select(ctx context.Context, input dto.SelectInput) (dto.SelectionOutput, error) {
	activity := domain.ActivityType(input.ActivityType)
	if err := activity.Validate(); err != nil {
		return dto.SelectionOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	emotion := domain.Emotion(input.Emotion)
	if err := emotion.Validate(); err != nil {
		return dto.SelectionOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if err := domain.ValidateDuration(input.DurationMinutes); err != nil {
		return dto.SelectionOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	unavailable := false
	catalog, err := i.configs.ListConfigurations(ctx, activity, input.CategoryID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dto.SelectionOutput{}, ctxErr
		}
		if !errors.Is(err, domain.ErrConfigurationFetch) {
			err = fmt.Errorf("%w: %w", domain.ErrConfigurationFetch, err)
		}
		i.logger.Warn("configuration catalog unavailable, continuing with empty catalog",
			zap.String("activity_type", string(activity)),
			zap.Error(err))
		catalog = nil
		unavailable = true
	}

	candidates := service.MatchConfigurations(catalog, emotion, input.DurationMinutes)
	selection := i.resolver.Resolve(ctx, activity, candidates, input.DurationMinutes)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return dto.SelectionOutput{}, ctxErr
	}
	i.logger.Debug("selection resolved",
		zap.String("emotion", string(emotion.Normalize())),
		zap.Int("duration_minutes", input.DurationMinutes),
		zap.Int("candidates", len(candidates)),
		zap.Int("clips", len(selection.Clips)),
		zap.Bool("synthetic", selection.Synthetic))

	out := dto.SelectionOutput{
		Candidates:                make([]dto.ConfigurationOutput, 0, len(selection.Candidates)),
		Configuration:             toConfigurationOutput(selection.Configuration, selection.Synthetic),
		ClipCount:                 len(selection.Clips),
		NoConfigurationForEmotion: selection.NoConfigurationForEmotion,
		CatalogUnavailable:        unavailable,
	}
	for _, cfg := range selection.Candidates {
		out.Candidates = append(out.Candidates, toConfigurationOutput(cfg, false))
	}
	if selection.Clip != nil {
		out.Clip = &dto.ClipOutput{
			ID:                    selection.Clip.ID,
			Title:                 selection.Clip.Title,
			Description:           selection.Clip.Description,
			VideoURL:              selection.Clip.VideoURL,
			AudioURL:              selection.Clip.AudioURL,
			ActivityType:          string(selection.Clip.ActivityType),
			SourceConfigurationID: selection.Clip.SourceConfigurationID,
			KarmaPoints:           selection.Clip.KarmaPoints,
		}
	}
	return out, nil
}

func toConfigurationOutput(cfg domain.Configuration, synthetic bool) dto.ConfigurationOutput {
	return dto.ConfigurationOutput{
		ID:              cfg.ID,
		ActivityType:    string(cfg.ActivityType),
		CategoryID:      cfg.CategoryID,
		Emotion:         string(cfg.Emotion),
		DurationMinutes: cfg.DurationMinutes,
		DurationLabel:   cfg.DurationLabel,
		KarmaPoints:     cfg.KarmaPoints,
		Title:           cfg.Title,
		Description:     cfg.Description,
		Synthetic:       synthetic,
	}
}
