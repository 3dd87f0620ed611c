package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stillpoint/internal/modules/practice/domain"
	"stillpoint/internal/modules/practice/dto"
	practicein "stillpoint/internal/modules/practice/port/in"
	practiceout "stillpoint/internal/modules/practice/port/out"
	apperrors "stillpoint/internal/platform/errors"
)

const defaultHistoryLimit = 20

type HistoryInteractor struct {
	index   practiceout.HistoryIndex
	journal practiceout.JournalReader
	logger  *zap.Logger
}

func NewHistoryInteractor(index practiceout.HistoryIndex, journal practiceout.JournalReader, logger *zap.Logger) practicein.HistoryUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryInteractor{index: index, journal: journal, logger: logger}
}

func (i *HistoryInteractor) List(ctx context.Context, input dto.HistoryListInput) ([]dto.HistoryEntry, error) {
	if input.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be non-negative", apperrors.ErrInvalidInput)
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	records, err := i.index.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryEntry, 0, len(records))
	for _, record := range records {
		out = append(out, toHistoryEntry(record))
	}
	return out, nil
}

// Reindex rebuilds the history index from the journal notes on disk.
func (i *HistoryInteractor) Reindex(ctx context.Context) (dto.ReindexOutput, error) {
	if i.journal == nil {
		return dto.ReindexOutput{}, fmt.Errorf("session journal is not configured")
	}
	records, err := i.journal.ListRecords(ctx)
	if err != nil {
		return dto.ReindexOutput{}, err
	}
	if err := i.index.Reset(ctx); err != nil {
		return dto.ReindexOutput{}, err
	}
	for _, record := range records {
		if err := i.index.Upsert(ctx, record); err != nil {
			return dto.ReindexOutput{}, err
		}
	}
	i.logger.Info("history reindexed", zap.Int("sessions", len(records)))
	return dto.ReindexOutput{Indexed: len(records)}, nil
}

func toHistoryEntry(record domain.SessionRecord) dto.HistoryEntry {
	return dto.HistoryEntry{
		SessionID:             record.SessionID,
		ActivityType:          record.ActivityType,
		Title:                 record.Title,
		Emotion:               record.Emotion,
		TargetDurationMinutes: record.TargetDurationMinutes,
		ActualDurationMinutes: record.ActualDurationMinutes,
		KarmaPoints:           record.KarmaPoints,
		Natural:               record.Natural,
		StartedAt:             record.StartedAt,
		EndedAt:               record.EndedAt,
	}
}
