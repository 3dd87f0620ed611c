package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"stillpoint/internal/modules/practice/domain"
	practiceout "stillpoint/internal/modules/practice/port/out"
)

type RecordInput struct {
	SessionID    string
	ActivityType string
	Emotion      string
	Selection    domain.SelectionState
	Reward       domain.Reward
	StartedAt    time.Time
	EndedAt      time.Time
}

// BuildRecord assembles the record for one finished session. Sessions ended
// before a full minute still produce a record with zero actual minutes.
func BuildRecord(input RecordInput) domain.SessionRecord {
	return domain.SessionRecord{
		SessionID:             input.SessionID,
		ActivityType:          input.ActivityType,
		Title:                 input.Selection.Title(),
		TargetDurationMinutes: input.Reward.TargetMinutes,
		ActualDurationMinutes: input.Reward.CompletedMinutes,
		KarmaPoints:           input.Reward.KarmaAwarded,
		Emotion:               strings.ToLower(strings.TrimSpace(input.Emotion)),
		VideoURL:              input.Selection.VideoURL,
		AudioURL:              input.Selection.AudioURL,
		Natural:               input.Reward.Natural,
		StartedAt:             input.StartedAt,
		EndedAt:               input.EndedAt,
	}
}

// RememberedSessions bounds how many recent session ids the recorder keeps
// for duplicate detection. The oldest id is forgotten first.
const RememberedSessions = 64

type SessionRecorder struct {
	auth   practiceout.AuthChecker
	store  practiceout.StatsStore
	logger *zap.Logger

	mu        sync.Mutex
	submitted map[string]struct{}
	order     []string
}

func NewSessionRecorder(auth practiceout.AuthChecker, store practiceout.StatsStore, logger *zap.Logger) *SessionRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRecorder{auth: auth, store: store, logger: logger, submitted: map[string]struct{}{}}
}

// Record submits a session at most once. The returned outcome is always
// usable for display; the error classifies why the record was not saved.
func (r *SessionRecorder) Record(ctx context.Context, record domain.SessionRecord) (domain.RecordOutcome, error) {
	r.mu.Lock()
	if _, done := r.submitted[record.SessionID]; done {
		r.mu.Unlock()
		return domain.RecordOutcome{Status: domain.PersistenceFailed, Message: "session already submitted"},
			fmt.Errorf("%w: %s", domain.ErrAlreadySubmitted, record.SessionID)
	}
	r.rememberLocked(record.SessionID)
	r.mu.Unlock()

	if r.auth == nil || !r.auth.Authenticated(ctx) {
		r.logger.Info("session not submitted, no credential present",
			zap.String("session_id", record.SessionID))
		return domain.RecordOutcome{Status: domain.PersistenceUnauthenticated, Message: domain.ErrUnauthenticated.Error()}, domain.ErrUnauthenticated
	}

	result, err := r.store.SaveSession(ctx, record)
	if err == nil && !result.Success {
		message := strings.TrimSpace(result.Message)
		if message == "" {
			message = "rejected by stats service"
		}
		err = fmt.Errorf("%s", message)
	}
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", domain.ErrPersistenceTransport, err)
		r.logger.Warn("session save failed",
			zap.String("session_id", record.SessionID),
			zap.Int("karma_points", record.KarmaPoints),
			zap.Error(wrapped))
		return domain.RecordOutcome{Status: domain.PersistenceFailed, Message: wrapped.Error()}, wrapped
	}

	message := strings.TrimSpace(result.Message)
	if message == "" {
		message = "session saved"
	}
	r.logger.Info("session saved",
		zap.String("session_id", record.SessionID),
		zap.Int("actual_minutes", record.ActualDurationMinutes),
		zap.Int("karma_points", record.KarmaPoints))
	return domain.RecordOutcome{Status: domain.PersistenceSaved, Message: message}, nil
}

func (r *SessionRecorder) rememberLocked(sessionID string) {
	if len(r.order) == RememberedSessions {
		delete(r.submitted, r.order[0])
		r.order = append(r.order[:0], r.order[1:]...)
	}
	r.order = append(r.order, sessionID)
	r.submitted[sessionID] = struct{}{}
}
