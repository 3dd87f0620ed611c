package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	catalogout "stillpoint/internal/modules/catalog/adapter/out"
	"stillpoint/internal/modules/catalog/domain"
)

const sampleCatalog = `configurations:
  - id: calm-10
    activity_type: silence
    category_id: morning
    emotion: calm
    duration: 10 min
    karma_points: 30
  - id: calm-5
    activity_type: silence
    category_id: morning
    emotion: Calm
    duration: 5 minutes
    karma_points: 15
  - id: chant-5
    activity_type: chanting
    emotion: calm
    duration: "5"
    karma_points: 9
  - id: broken
    activity_type: silence
    emotion: calm
    duration: soon
clips:
  - id: clip-a
    configuration_id: calm-5
    audio_url: file:///a.mp3
  - id: clip-b
    configuration_id: calm-5
    video_url: file:///b.mp4
  - id: clip-c
    configuration_id: chant-5
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestFileCatalogFiltersByActivityAndCategory(t *testing.T) {
	t.Parallel()
	catalog := catalogout.NewFileCatalog(writeCatalog(t, sampleCatalog), zaptest.NewLogger(t))

	got, err := catalog.ListConfigurations(context.Background(), domain.ActivitySilence, "morning")
	if err != nil {
		t.Fatalf("list configurations: %v", err)
	}
	if len(got) != 2 || got[0].ID != "calm-10" || got[1].ID != "calm-5" {
		t.Fatalf("unexpected configurations: %+v", got)
	}
	if got[0].DurationMinutes != 10 || got[1].DurationMinutes != 5 {
		t.Fatalf("durations not parsed: %+v", got)
	}

	all, err := catalog.ListConfigurations(context.Background(), domain.ActivitySilence, "")
	if err != nil {
		t.Fatalf("list configurations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected unparseable entry dropped, got %+v", all)
	}
}

func TestFileCatalogClipsKeepFileOrder(t *testing.T) {
	t.Parallel()
	catalog := catalogout.NewFileCatalog(writeCatalog(t, sampleCatalog), nil)
	clips, err := catalog.ListClipsForConfiguration(context.Background(), "calm-5")
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(clips) != 2 || clips[0].ID != "clip-a" || clips[1].ID != "clip-b" {
		t.Fatalf("unexpected clips: %+v", clips)
	}
	none, err := catalog.ListClipsForConfiguration(context.Background(), "calm-10")
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no clips, got %+v", none)
	}
}

func TestFileCatalogMissingFile(t *testing.T) {
	t.Parallel()
	catalog := catalogout.NewFileCatalog(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if _, err := catalog.ListConfigurations(context.Background(), domain.ActivitySilence, ""); !errors.Is(err, domain.ErrConfigurationFetch) {
		t.Fatalf("expected ErrConfigurationFetch, got %v", err)
	}
	if _, err := catalog.ListClipsForConfiguration(context.Background(), "x"); !errors.Is(err, domain.ErrClipFetch) {
		t.Fatalf("expected ErrClipFetch, got %v", err)
	}
}
