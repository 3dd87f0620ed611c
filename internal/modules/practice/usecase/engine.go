package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"stillpoint/internal/modules/practice/domain"
	"stillpoint/internal/modules/practice/dto"
	practicein "stillpoint/internal/modules/practice/port/in"
	practiceout "stillpoint/internal/modules/practice/port/out"
	"stillpoint/internal/modules/practice/service"
	"stillpoint/internal/platform/clock"
	"stillpoint/internal/platform/debounce"
	apperrors "stillpoint/internal/platform/errors"
	"stillpoint/internal/platform/id"
)

const (
	DefaultQuietPeriod  = 300 * time.Millisecond
	DefaultTickInterval = time.Second
)

type EngineConfig struct {
	ActivityType    string
	CategoryID      string
	Emotion         string
	DurationMinutes int
	QuietPeriod     time.Duration
	TickInterval    time.Duration
}

type EngineDeps struct {
	Clock    clock.Clock
	IDs      id.Generator
	Selector practiceout.Selector
	Player   practiceout.MediaPlayer
	Auth     practiceout.AuthChecker
	Recorder *service.SessionRecorder
	Logger   *zap.Logger
}

type mediaSlot struct {
	request  domain.MediaRequest
	playback practiceout.Playback
	playing  bool
	err      string
}

type activeSession struct {
	id            string
	startedAt     time.Time
	targetMinutes int
	remaining     int
	emotion       string
	selection     domain.SelectionState
	authenticated bool
	timer         clock.Timer
	stopped       bool
	media         []*mediaSlot
}

type subscriber struct {
	id int
	fn func(dto.Snapshot)
}

type delivery struct {
	snapshot    dto.Snapshot
	subscribers []subscriber
}

// Engine is the state machine behind one practice screen. All state lives
// behind mu; timer and debounce callbacks re-enter through it and check that
// the session or run they were scheduled for is still current.
type Engine struct {
	clock        clock.Clock
	ids          id.Generator
	selector     practiceout.Selector
	player       practiceout.MediaPlayer
	auth         practiceout.AuthChecker
	recorder     *service.SessionRecorder
	logger       *zap.Logger
	activity     string
	categoryID   string
	tickInterval time.Duration
	debouncer    *debounce.Debouncer
	ctx          context.Context
	cancel       context.CancelFunc

	mu          sync.Mutex
	version     uint64
	status      domain.Status
	emotion     string
	duration    int
	selection   domain.SelectionState
	resolvedFor domain.SelectionRequest
	runs        int
	runGen      uint64
	cancelRun   context.CancelFunc
	starting    bool
	session     *activeSession
	reward      *domain.Reward
	persistence domain.RecordOutcome
	subscribers []subscriber
	nextSub     int
	closed      bool
}

func NewEngine(cfg EngineConfig, deps EngineDeps) (practicein.Engine, error) {
	if deps.Selector == nil {
		return nil, fmt.Errorf("selector is required")
	}
	emotion := normalizeEmotion(cfg.Emotion)
	if emotion == "" {
		return nil, fmt.Errorf("%w: emotion is required", apperrors.ErrInvalidInput)
	}
	if err := validateDuration(cfg.DurationMinutes); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = id.UUID{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		clock:        deps.Clock,
		ids:          deps.IDs,
		selector:     deps.Selector,
		player:       deps.Player,
		auth:         deps.Auth,
		recorder:     deps.Recorder,
		logger:       deps.Logger,
		activity:     cfg.ActivityType,
		categoryID:   cfg.CategoryID,
		tickInterval: cfg.TickInterval,
		debouncer:    debounce.New(deps.Clock, cfg.QuietPeriod),
		ctx:          ctx,
		cancel:       cancel,
		status:       domain.StatusIdle,
		emotion:      emotion,
		duration:     cfg.DurationMinutes,
		selection:    domain.SyntheticSelection(cfg.DurationMinutes),
	}
	e.mu.Lock()
	e.scheduleSelectionLocked()
	e.mu.Unlock()
	return e, nil
}

func (e *Engine) Snapshot() dto.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Subscribe(fn func(dto.Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || fn == nil {
		return func() {}
	}
	e.nextSub++
	subID := e.nextSub
	e.subscribers = append(e.subscribers, subscriber{id: subID, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, sub := range e.subscribers {
			if sub.id == subID {
				e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) SetEmotion(emotion string) error {
	normalized := normalizeEmotion(emotion)
	if normalized == "" {
		return fmt.Errorf("%w: emotion is required", apperrors.ErrInvalidInput)
	}
	return e.updateSettings(func() { e.emotion = normalized })
}

func (e *Engine) SetDuration(minutes int) error {
	if err := validateDuration(minutes); err != nil {
		return err
	}
	return e.updateSettings(func() { e.duration = minutes })
}

func (e *Engine) updateSettings(apply func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return apperrors.ErrEngineClosed
	}
	if e.status != domain.StatusIdle || e.starting {
		e.mu.Unlock()
		return apperrors.ErrSessionInProgress
	}
	apply()
	e.scheduleSelectionLocked()
	d := e.changedLocked()
	e.mu.Unlock()
	e.deliver(d)
	return nil
}

func (e *Engine) scheduleSelectionLocked() {
	e.debouncer.Trigger(func() { e.runSelection(e.ctx) })
}

// runSelection executes one matcher/resolver pass for the current settings.
// A run superseded by a newer one, or finishing after the engine left Idle,
// is discarded.
func (e *Engine) runSelection(parent context.Context) {
	e.mu.Lock()
	if e.closed || e.status != domain.StatusIdle {
		e.mu.Unlock()
		return
	}
	if e.cancelRun != nil {
		e.cancelRun()
	}
	e.runGen++
	gen := e.runGen
	ctx, cancel := context.WithCancel(parent)
	e.cancelRun = cancel
	request := domain.SelectionRequest{
		ActivityType:    e.activity,
		CategoryID:      e.categoryID,
		Emotion:         e.emotion,
		DurationMinutes: e.duration,
	}
	d := e.changedLocked()
	e.mu.Unlock()
	e.deliver(d)

	selection, err := e.selector.Select(ctx, request)

	e.mu.Lock()
	if gen != e.runGen || e.closed || e.status != domain.StatusIdle {
		e.mu.Unlock()
		cancel()
		return
	}
	e.cancelRun = nil
	cancel()
	e.runs++
	if err != nil {
		e.logger.Warn("selection failed, falling back to synthetic configuration",
			zap.String("emotion", request.Emotion),
			zap.Int("duration_minutes", request.DurationMinutes),
			zap.Error(err))
		selection = domain.SyntheticSelection(request.DurationMinutes)
	}
	e.selection = selection
	e.resolvedFor = request
	d = e.changedLocked()
	e.mu.Unlock()
	e.deliver(d)
}

// Start begins a session from Idle. A pending, in-flight or missing
// selection for the current settings is run first so the session never
// starts on stale settings.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return apperrors.ErrEngineClosed
	}
	if e.status != domain.StatusIdle || e.starting {
		e.mu.Unlock()
		return apperrors.ErrSessionInProgress
	}
	e.starting = true
	flush := e.debouncer.Cancel() || e.cancelRun != nil || !e.selectionCurrentLocked()
	e.mu.Unlock()

	if flush {
		e.runSelection(ctx)
	}
	authenticated := e.auth != nil && e.auth.Authenticated(ctx)

	e.mu.Lock()
	e.starting = false
	if e.closed {
		e.mu.Unlock()
		return apperrors.ErrEngineClosed
	}
	if e.cancelRun != nil {
		e.cancelRun()
		e.cancelRun = nil
	}
	s := &activeSession{
		id:            e.ids.New(),
		startedAt:     e.clock.Now(),
		targetMinutes: e.duration,
		remaining:     e.duration * 60,
		emotion:       e.emotion,
		selection:     e.selection,
		authenticated: authenticated,
		media:         mediaSlots(e.selection),
	}
	e.session = s
	e.status = domain.StatusActive
	e.reward = nil
	e.persistence = domain.RecordOutcome{}
	s.timer = e.clock.AfterFunc(e.tickInterval, func() { e.tick(s) })
	d := e.changedLocked()
	e.mu.Unlock()
	e.deliver(d)

	e.logger.Info("session started",
		zap.String("session_id", s.id),
		zap.String("activity_type", e.activity),
		zap.Int("target_minutes", s.targetMinutes),
		zap.Int("karma_points", s.selection.Configuration.KarmaPoints),
		zap.Bool("synthetic", s.selection.Configuration.Synthetic))
	e.startMedia(ctx, s)
	return nil
}

func (e *Engine) selectionCurrentLocked() bool {
	return e.resolvedFor.DurationMinutes == e.duration && e.resolvedFor.Emotion == e.emotion
}

func mediaSlots(selection domain.SelectionState) []*mediaSlot {
	title := selection.Title()
	slots := []*mediaSlot{}
	if selection.VideoURL != "" {
		slots = append(slots, &mediaSlot{request: domain.MediaRequest{Channel: domain.ChannelVideo, URL: selection.VideoURL, Title: title}})
	}
	if selection.AudioURL != "" {
		slots = append(slots, &mediaSlot{request: domain.MediaRequest{Channel: domain.ChannelAudio, URL: selection.AudioURL, Title: title}})
	}
	return slots
}

// startMedia is best effort: a channel that fails to start is recorded as not
// playing and the countdown carries on without it.
func (e *Engine) startMedia(ctx context.Context, s *activeSession) {
	for _, slot := range s.media {
		var (
			playback practiceout.Playback
			err      error
		)
		if e.player == nil {
			err = fmt.Errorf("no media player configured")
		} else {
			playback, err = e.player.Play(ctx, slot.request)
		}

		var stale practiceout.Playback
		e.mu.Lock()
		switch {
		case err != nil:
			wrapped := fmt.Errorf("%w: %s: %v", domain.ErrPlaybackStart, slot.request.Channel, err)
			slot.err = wrapped.Error()
			e.logger.Warn("media playback did not start",
				zap.String("session_id", s.id),
				zap.String("channel", string(slot.request.Channel)),
				zap.Error(wrapped))
		case e.session != s || s.stopped:
			stale = playback
		default:
			slot.playback = playback
			slot.playing = true
		}
		d := e.changedLocked()
		e.mu.Unlock()
		e.deliver(d)

		if stale != nil {
			e.stopPlaybacks([]practiceout.Playback{stale})
		}
	}
}

func (e *Engine) tick(s *activeSession) {
	e.mu.Lock()
	if e.closed || e.session != s || s.stopped {
		e.mu.Unlock()
		return
	}
	s.remaining--
	if s.remaining > 0 {
		s.timer = e.clock.AfterFunc(e.tickInterval, func() { e.tick(s) })
		d := e.changedLocked()
		e.mu.Unlock()
		e.deliver(d)
		return
	}
	s.remaining = 0
	playbacks := e.haltLocked(s)
	e.mu.Unlock()
	e.finish(e.ctx, s, playbacks, true)
}

// End stops the countdown and media before computing the partial reward.
func (e *Engine) End(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return apperrors.ErrEngineClosed
	}
	s := e.session
	if e.status != domain.StatusActive || s == nil || s.stopped {
		e.mu.Unlock()
		return apperrors.ErrNoActiveSession
	}
	playbacks := e.haltLocked(s)
	e.mu.Unlock()
	e.finish(ctx, s, playbacks, false)
	return nil
}

// haltLocked invalidates the tick handle and detaches every playback.
func (e *Engine) haltLocked(s *activeSession) []practiceout.Playback {
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	playbacks := []practiceout.Playback{}
	for _, slot := range s.media {
		if slot.playback != nil {
			playbacks = append(playbacks, slot.playback)
		}
		slot.playback = nil
		slot.playing = false
	}
	return playbacks
}

func (e *Engine) stopPlaybacks(playbacks []practiceout.Playback) {
	for _, playback := range playbacks {
		if err := playback.Stop(); err != nil {
			e.logger.Warn("media playback did not stop cleanly", zap.Error(err))
		}
	}
}

func (e *Engine) finish(ctx context.Context, s *activeSession, playbacks []practiceout.Playback, natural bool) {
	e.stopPlaybacks(playbacks)

	e.mu.Lock()
	if e.closed || e.session != s {
		e.mu.Unlock()
		return
	}
	reward := domain.ComputeReward(s.selection.Configuration.KarmaPoints, s.targetMinutes, s.remaining, natural)
	e.status = domain.StatusFinished
	e.reward = &reward
	record := service.BuildRecord(service.RecordInput{
		SessionID:    s.id,
		ActivityType: e.activity,
		Emotion:      s.emotion,
		Selection:    s.selection,
		Reward:       reward,
		StartedAt:    s.startedAt,
		EndedAt:      e.clock.Now(),
	})
	if e.recorder != nil {
		e.persistence = domain.RecordOutcome{Status: domain.PersistencePending}
	}
	d := e.changedLocked()
	e.mu.Unlock()
	e.deliver(d)

	e.logger.Info("session finished",
		zap.String("session_id", s.id),
		zap.Bool("natural", natural),
		zap.Int("completed_minutes", reward.CompletedMinutes),
		zap.Int("karma_awarded", reward.KarmaAwarded))

	if e.recorder == nil {
		return
	}
	outcome, err := e.recorder.Record(ctx, record)
	if err != nil {
		e.logger.Debug("session record not saved", zap.String("session_id", s.id), zap.Error(err))
	}

	e.mu.Lock()
	if e.closed || e.session != s {
		e.mu.Unlock()
		return
	}
	e.persistence = outcome
	d = e.changedLocked()
	e.mu.Unlock()
	e.deliver(d)
}

// AcknowledgeReward returns to Idle and starts a clean selection for the
// current settings.
func (e *Engine) AcknowledgeReward() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return apperrors.ErrEngineClosed
	}
	if e.status != domain.StatusFinished {
		e.mu.Unlock()
		return apperrors.ErrNoFinishedSession
	}
	e.status = domain.StatusIdle
	e.session = nil
	e.reward = nil
	e.persistence = domain.RecordOutcome{}
	e.selection = domain.SyntheticSelection(e.duration)
	e.resolvedFor = domain.SelectionRequest{}
	e.scheduleSelectionLocked()
	d := e.changedLocked()
	e.mu.Unlock()
	e.deliver(d)
	return nil
}

// Close cancels the tick handle, the pending debounce and any in-flight
// selection, and stops media. An active session is not recorded.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.debouncer.Cancel()
	if e.cancelRun != nil {
		e.cancelRun()
		e.cancelRun = nil
	}
	var playbacks []practiceout.Playback
	if s := e.session; s != nil && !s.stopped {
		playbacks = e.haltLocked(s)
	}
	e.subscribers = nil
	e.mu.Unlock()

	e.cancel()
	e.stopPlaybacks(playbacks)
	return nil
}

func (e *Engine) changedLocked() delivery {
	e.version++
	subs := make([]subscriber, len(e.subscribers))
	copy(subs, e.subscribers)
	return delivery{snapshot: e.snapshotLocked(), subscribers: subs}
}

func (e *Engine) deliver(d delivery) {
	for _, sub := range d.subscribers {
		sub.fn(d.snapshot)
	}
}

func (e *Engine) snapshotLocked() dto.Snapshot {
	snap := dto.Snapshot{
		Version:         e.version,
		Status:          string(e.status),
		ActivityType:    e.activity,
		Emotion:         e.emotion,
		DurationMinutes: e.duration,
		Selecting:       e.cancelRun != nil || e.debouncer.Pending(),
		SelectionRuns:   e.runs,
		Selection:       toSelectionView(e.selection),
		Persistence: dto.PersistenceView{
			Status:  string(e.persistence.Status),
			Message: e.persistence.Message,
		},
	}
	if s := e.session; s != nil {
		view := &dto.SessionView{
			ID:               s.id,
			Title:            s.selection.Title(),
			StartedAt:        s.startedAt,
			TargetMinutes:    s.targetMinutes,
			RemainingSeconds: s.remaining,
			Authenticated:    s.authenticated,
			Media:            make([]dto.MediaView, 0, len(s.media)),
		}
		for _, slot := range s.media {
			view.Media = append(view.Media, dto.MediaView{
				Channel: string(slot.request.Channel),
				URL:     slot.request.URL,
				Playing: slot.playing,
				Error:   slot.err,
			})
		}
		snap.Session = view
	}
	if e.reward != nil {
		snap.Reward = &dto.RewardView{
			Natural:          e.reward.Natural,
			TargetMinutes:    e.reward.TargetMinutes,
			CompletedMinutes: e.reward.CompletedMinutes,
			KarmaAvailable:   e.reward.KarmaAvailable,
			KarmaAwarded:     e.reward.KarmaAwarded,
			Fraction:         e.reward.Fraction(),
		}
	}
	return snap
}

func toSelectionView(selection domain.SelectionState) dto.SelectionView {
	view := dto.SelectionView{
		Candidates:                make([]dto.ConfigurationView, 0, len(selection.Candidates)),
		Configuration:             toConfigurationView(selection.Configuration),
		NoConfigurationForEmotion: selection.NoConfigurationForEmotion,
		CatalogUnavailable:        selection.CatalogUnavailable,
	}
	for _, cfg := range selection.Candidates {
		view.Candidates = append(view.Candidates, toConfigurationView(cfg))
	}
	if selection.Clip != nil {
		view.Clip = &dto.ClipView{
			ID:                    selection.Clip.ID,
			Title:                 selection.Clip.Title,
			VideoURL:              selection.VideoURL,
			AudioURL:              selection.AudioURL,
			SourceConfigurationID: selection.Clip.SourceConfigurationID,
		}
	}
	return view
}

func toConfigurationView(cfg domain.Configuration) dto.ConfigurationView {
	return dto.ConfigurationView{
		ID:              cfg.ID,
		Title:           cfg.Title,
		DurationMinutes: cfg.DurationMinutes,
		KarmaPoints:     cfg.KarmaPoints,
		Synthetic:       cfg.Synthetic,
	}
}

func normalizeEmotion(emotion string) string {
	return strings.ToLower(strings.TrimSpace(emotion))
}

func validateDuration(minutes int) error {
	if minutes < domain.MinDurationMinutes || minutes > domain.MaxDurationMinutes {
		return fmt.Errorf("%w: duration must be between %d and %d minutes, got %d",
			apperrors.ErrInvalidInput, domain.MinDurationMinutes, domain.MaxDurationMinutes, minutes)
	}
	return nil
}
