package in

import (
	"context"

	"stillpoint/internal/modules/catalog/dto"
)

type Usecase interface {
	ListConfigurations(ctx context.Context, input dto.ListInput) ([]dto.ConfigurationOutput, error)
	Select(ctx context.Context, input dto.SelectInput) (dto.SelectionOutput, error)
}
