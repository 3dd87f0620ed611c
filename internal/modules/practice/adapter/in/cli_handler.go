package in

import (
	"context"
	"errors"
	"time"

	"stillpoint/internal/modules/practice/dto"
	practicein "stillpoint/internal/modules/practice/port/in"
	apperrors "stillpoint/internal/platform/errors"
)

var ErrHistoryUnavailable = errors.New("history is kept by the remote stats service")

type CLIHandler struct {
	history practicein.HistoryUsecase
	player  practicein.PlayerUsecase
}

func NewCLIHandler(history practicein.HistoryUsecase, player practicein.PlayerUsecase) CLIHandler {
	return CLIHandler{history: history, player: player}
}

type RunOptions struct {
	// EndAfter ends the session early once elapsed. Zero lets it run to completion.
	EndAfter time.Duration
	OnUpdate func(dto.Snapshot)
}

// Run starts a headless session and blocks until it has finished and its
// record has settled. Cancelling ctx ends the session early; the session is
// still recorded.
func (h CLIHandler) Run(ctx context.Context, engine practicein.Engine, opts RunOptions) (dto.Snapshot, error) {
	notify := make(chan struct{}, 1)
	unsubscribe := engine.Subscribe(func(dto.Snapshot) {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if err := engine.Start(ctx); err != nil {
		return dto.Snapshot{}, err
	}

	var deadline <-chan time.Time
	if opts.EndAfter > 0 {
		timer := time.NewTimer(opts.EndAfter)
		defer timer.Stop()
		deadline = timer.C
	}
	done := ctx.Done()
	var lastVersion uint64
	for {
		snapshot := engine.Snapshot()
		if snapshot.Version != lastVersion {
			lastVersion = snapshot.Version
			if opts.OnUpdate != nil {
				opts.OnUpdate(snapshot)
			}
		}
		if settled(snapshot) {
			return snapshot, nil
		}
		select {
		case <-notify:
		case <-deadline:
			deadline = nil
			if err := h.end(engine); err != nil {
				return engine.Snapshot(), err
			}
		case <-done:
			done = nil
			if err := h.end(engine); err != nil {
				return engine.Snapshot(), err
			}
		}
	}
}

// end uses a fresh context so the record is still submitted after the
// caller's context was cancelled.
func (h CLIHandler) end(engine practicein.Engine) error {
	err := engine.End(context.Background())
	if errors.Is(err, apperrors.ErrNoActiveSession) {
		return nil
	}
	return err
}

func settled(snapshot dto.Snapshot) bool {
	return snapshot.Status == "finished" && snapshot.Persistence.Status != "pending"
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.HistoryEntry, error) {
	if h.history == nil {
		return nil, ErrHistoryUnavailable
	}
	return h.history.List(ctx, dto.HistoryListInput{Limit: limit})
}

func (h CLIHandler) Reindex(ctx context.Context) (dto.ReindexOutput, error) {
	if h.history == nil {
		return dto.ReindexOutput{}, ErrHistoryUnavailable
	}
	return h.history.Reindex(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) (dto.DoctorResult, error) {
	return h.player.Doctor(ctx)
}
