package out

import (
	"context"

	"stillpoint/internal/modules/practice/domain"
)

// Selector runs configuration matching and clip resolution for settled input.
type Selector interface {
	Select(ctx context.Context, request domain.SelectionRequest) (domain.SelectionState, error)
}

type Playback interface {
	Stop() error
}

type MediaPlayer interface {
	Play(ctx context.Context, request domain.MediaRequest) (Playback, error)
}

type SaveResult struct {
	Success bool
	Message string
	Data    map[string]any
}

type StatsStore interface {
	SaveSession(ctx context.Context, record domain.SessionRecord) (SaveResult, error)
}

type AuthChecker interface {
	Authenticated(ctx context.Context) bool
}

type HistoryIndex interface {
	Reset(ctx context.Context) error
	Upsert(ctx context.Context, record domain.SessionRecord) error
	List(ctx context.Context, limit int) ([]domain.SessionRecord, error)
}

type JournalReader interface {
	ListRecords(ctx context.Context) ([]domain.SessionRecord, error)
}

type PlayerHost interface {
	Binary() string
	ExpectedSHA256() string
	Handshake(ctx context.Context) (domain.PlayerMetadata, error)
}
