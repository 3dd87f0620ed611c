package in

import (
	"context"

	"stillpoint/internal/modules/practice/dto"
)

// Engine drives one practice screen: selection, countdown, reward and recording.
type Engine interface {
	Snapshot() dto.Snapshot
	Subscribe(fn func(dto.Snapshot)) (unsubscribe func())
	SetEmotion(emotion string) error
	SetDuration(minutes int) error
	Start(ctx context.Context) error
	End(ctx context.Context) error
	AcknowledgeReward() error
	Close() error
}

type HistoryUsecase interface {
	List(ctx context.Context, input dto.HistoryListInput) ([]dto.HistoryEntry, error)
	Reindex(ctx context.Context) (dto.ReindexOutput, error)
}

type PlayerUsecase interface {
	Doctor(ctx context.Context) (dto.DoctorResult, error)
}
