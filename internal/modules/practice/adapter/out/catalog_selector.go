package out

import (
	"context"

	catalogdto "stillpoint/internal/modules/catalog/dto"
	catalogin "stillpoint/internal/modules/catalog/port/in"
	"stillpoint/internal/modules/practice/domain"
	practiceout "stillpoint/internal/modules/practice/port/out"
)

// CatalogSelector bridges the practice engine to the catalog module.
type CatalogSelector struct {
	catalog catalogin.Usecase
}

func NewCatalogSelector(catalog catalogin.Usecase) practiceout.Selector {
	return &CatalogSelector{catalog: catalog}
}

func (s *CatalogSelector) Select(ctx context.Context, request domain.SelectionRequest) (domain.SelectionState, error) {
	out, err := s.catalog.Select(ctx, catalogdto.SelectInput{
		ActivityType:    request.ActivityType,
		CategoryID:      request.CategoryID,
		Emotion:         request.Emotion,
		DurationMinutes: request.DurationMinutes,
	})
	if err != nil {
		return domain.SelectionState{}, err
	}
	state := domain.SelectionState{
		Candidates:                make([]domain.Configuration, 0, len(out.Candidates)),
		Configuration:             toConfiguration(out.Configuration),
		NoConfigurationForEmotion: out.NoConfigurationForEmotion,
		CatalogUnavailable:        out.CatalogUnavailable,
	}
	for _, candidate := range out.Candidates {
		state.Candidates = append(state.Candidates, toConfiguration(candidate))
	}
	if out.Clip != nil {
		state.Clip = &domain.Clip{
			ID:                    out.Clip.ID,
			Title:                 out.Clip.Title,
			VideoURL:              out.Clip.VideoURL,
			AudioURL:              out.Clip.AudioURL,
			SourceConfigurationID: out.Clip.SourceConfigurationID,
			KarmaPoints:           out.Clip.KarmaPoints,
		}
		state.VideoURL = out.Clip.VideoURL
		state.AudioURL = out.Clip.AudioURL
	}
	return state, nil
}

func toConfiguration(cfg catalogdto.ConfigurationOutput) domain.Configuration {
	return domain.Configuration{
		ID:              cfg.ID,
		Title:           cfg.Title,
		Description:     cfg.Description,
		DurationMinutes: cfg.DurationMinutes,
		KarmaPoints:     cfg.KarmaPoints,
		Synthetic:       cfg.Synthetic,
	}
}
