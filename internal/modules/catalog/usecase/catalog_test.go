package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"stillpoint/internal/modules/catalog/domain"
	"stillpoint/internal/modules/catalog/dto"
	"stillpoint/internal/modules/catalog/service"
	"stillpoint/internal/modules/catalog/usecase"
	apperrors "stillpoint/internal/platform/errors"
)

type fakeConfigs struct {
	configs      []domain.Configuration
	err          error
	lastActivity domain.ActivityType
	lastCategory string
}

func (f *fakeConfigs) ListConfigurations(_ context.Context, activity domain.ActivityType, categoryID string) ([]domain.Configuration, error) {
	f.lastActivity = activity
	f.lastCategory = categoryID
	return f.configs, f.err
}

type fakeClips struct {
	clips map[string][]domain.Clip
}

func (f fakeClips) ListClipsForConfiguration(_ context.Context, id string) ([]domain.Clip, error) {
	return f.clips[id], nil
}

func newInteractor(t *testing.T, configs *fakeConfigs, clips fakeClips) *usecase.Interactor {
	t.Helper()
	logger := zaptest.NewLogger(t)
	uc := usecase.NewInteractor(configs, service.NewClipResolver(clips, logger), logger)
	return uc.(*usecase.Interactor)
}

func TestSelectNearestConfigurationExample(t *testing.T) {
	t.Parallel()
	configs := &fakeConfigs{configs: []domain.Configuration{
		{ID: "calm-5", Emotion: "calm", DurationMinutes: 5, KarmaPoints: 12, Title: "Five"},
		{ID: "calm-10", Emotion: "calm", DurationMinutes: 10, KarmaPoints: 20, Title: "Ten"},
	}}
	clips := fakeClips{clips: map[string][]domain.Clip{
		"calm-5": {{ID: "clip-5", VideoURL: "https://cdn/5.mp4"}},
	}}
	uc := newInteractor(t, configs, clips)

	out, err := uc.Select(context.Background(), dto.SelectInput{ActivityType: "silence", CategoryID: "cat-1", Emotion: "Calm", DurationMinutes: 7})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if configs.lastActivity != domain.ActivitySilence || configs.lastCategory != "cat-1" {
		t.Fatalf("catalog must be queried by activity and category, got %s/%s", configs.lastActivity, configs.lastCategory)
	}
	if len(out.Candidates) != 1 || out.Configuration.ID != "calm-5" || out.Configuration.KarmaPoints != 12 {
		t.Fatalf("expected nearest 5-minute config, got %+v", out)
	}
	if out.Clip == nil || out.Clip.VideoURL != "https://cdn/5.mp4" {
		t.Fatalf("expected clip media, got %+v", out.Clip)
	}
}

func TestSelectCatalogOutageDegradesToSynthetic(t *testing.T) {
	t.Parallel()
	configs := &fakeConfigs{err: errors.New("connection refused")}
	uc := newInteractor(t, configs, fakeClips{})

	out, err := uc.Select(context.Background(), dto.SelectInput{ActivityType: "silence", Emotion: "calm", DurationMinutes: 4})
	if err != nil {
		t.Fatalf("catalog outage must not fail selection: %v", err)
	}
	if !out.CatalogUnavailable || !out.NoConfigurationForEmotion {
		t.Fatalf("expected degraded flags, got %+v", out)
	}
	if !out.Configuration.Synthetic || out.Configuration.KarmaPoints != 4 || out.Clip != nil {
		t.Fatalf("expected synthetic karma 4 without media, got %+v", out)
	}
}

func TestSelectCatalogDefinedEmotion(t *testing.T) {
	t.Parallel()
	configs := &fakeConfigs{configs: []domain.Configuration{
		{ID: "calm-5", Emotion: "calm", DurationMinutes: 5, KarmaPoints: 12},
		{ID: "peace-5", Emotion: "Peaceful", DurationMinutes: 5, KarmaPoints: 9},
	}}
	clips := fakeClips{clips: map[string][]domain.Clip{
		"peace-5": {{ID: "clip-peace", AudioURL: "https://cdn/peace.mp3"}},
	}}
	uc := newInteractor(t, configs, clips)

	out, err := uc.Select(context.Background(), dto.SelectInput{ActivityType: "silence", Emotion: "peaceful", DurationMinutes: 5})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(out.Candidates) != 1 || out.Configuration.ID != "peace-5" || out.Configuration.Synthetic {
		t.Fatalf("expected catalog configuration peace-5, got %+v", out)
	}
	if out.NoConfigurationForEmotion || out.Clip == nil || out.Clip.SourceConfigurationID != "peace-5" {
		t.Fatalf("expected peace-5 clip without fallback flag, got %+v", out)
	}
}

func TestSelectEmotionAbsentFromCatalogFallsBack(t *testing.T) {
	t.Parallel()
	configs := &fakeConfigs{configs: []domain.Configuration{
		{ID: "calm-5", Emotion: "calm", DurationMinutes: 5, KarmaPoints: 12},
	}}
	uc := newInteractor(t, configs, fakeClips{})

	out, err := uc.Select(context.Background(), dto.SelectInput{ActivityType: "silence", Emotion: "bored", DurationMinutes: 5})
	if err != nil {
		t.Fatalf("unlisted emotion must not fail selection: %v", err)
	}
	if !out.NoConfigurationForEmotion || !out.Configuration.Synthetic || out.CatalogUnavailable {
		t.Fatalf("expected synthetic fallback without outage flag, got %+v", out)
	}
}

func TestSelectRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, &fakeConfigs{}, fakeClips{})
	cases := []dto.SelectInput{
		{ActivityType: "juggling", Emotion: "calm", DurationMinutes: 5},
		{ActivityType: "silence", Emotion: "   ", DurationMinutes: 5},
		{ActivityType: "silence", Emotion: "calm", DurationMinutes: 11},
	}
	for _, input := range cases {
		if _, err := uc.Select(context.Background(), input); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", input, err)
		}
	}
}

func TestSelectCancelledContextReturnsError(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, &fakeConfigs{err: context.Canceled}, fakeClips{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := uc.Select(ctx, dto.SelectInput{ActivityType: "silence", Emotion: "calm", DurationMinutes: 5}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestListConfigurationsPropagatesFetchError(t *testing.T) {
	t.Parallel()
	uc := newInteractor(t, &fakeConfigs{err: domain.ErrConfigurationFetch}, fakeClips{})
	if _, err := uc.ListConfigurations(context.Background(), dto.ListInput{ActivityType: "silence"}); !errors.Is(err, domain.ErrConfigurationFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
