package out

import (
	"context"

	"stillpoint/internal/modules/catalog/domain"
)

// ConfigurationSource lists configurations pre-filtered by activity type and
// optional category. Emotion and duration matching happen client-side.
type ConfigurationSource interface {
	ListConfigurations(ctx context.Context, activity domain.ActivityType, categoryID string) ([]domain.Configuration, error)
}

type ClipSource interface {
	ListClipsForConfiguration(ctx context.Context, configurationID string) ([]domain.Clip, error)
}
