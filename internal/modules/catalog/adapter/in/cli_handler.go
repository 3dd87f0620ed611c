package in

import (
	"context"

	"stillpoint/internal/modules/catalog/dto"
	catalogin "stillpoint/internal/modules/catalog/port/in"
)

type CLIHandler struct {
	usecase catalogin.Usecase
}

func NewCLIHandler(usecase catalogin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, activityType, categoryID string) ([]dto.ConfigurationOutput, error) {
	return h.usecase.ListConfigurations(ctx, dto.ListInput{ActivityType: activityType, CategoryID: categoryID})
}

func (h CLIHandler) Match(ctx context.Context, activityType, categoryID, emotion string, durationMinutes int) (dto.SelectionOutput, error) {
	return h.usecase.Select(ctx, dto.SelectInput{
		ActivityType:    activityType,
		CategoryID:      categoryID,
		Emotion:         emotion,
		DurationMinutes: durationMinutes,
	})
}
