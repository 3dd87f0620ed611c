package bootstrap

import (
	"context"
	"errors"
	"testing"

	practiceservice "stillpoint/internal/modules/practice/service"
	"stillpoint/internal/platform/config"
)

func TestNewWiresLocalJournal(t *testing.T) {
	t.Setenv("STILLPOINT_LOG_LEVEL", "off")
	t.Setenv("STILLPOINT_CATALOG_URL", "")
	t.Setenv("STILLPOINT_STATS_URL", "")
	t.Setenv("STILLPOINT_PLAYER_BINARY", "")
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	app, err := New(cfg)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	entries, err := app.PracticeCLI.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d", len(entries))
	}
	if _, err := app.PracticeCLI.Doctor(context.Background()); !errors.Is(err, practiceservice.ErrPlayerNotConfigured) {
		t.Fatalf("expected ErrPlayerNotConfigured, got %v", err)
	}
	if len(app.Emotions) == 0 {
		t.Fatalf("expected emotion choices")
	}

	engine, err := app.NewEngine(EngineSettings{Emotion: "happy", DurationMinutes: 3})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer engine.Close()
	snapshot := engine.Snapshot()
	if snapshot.Emotion != "happy" || snapshot.DurationMinutes != 3 || snapshot.Status != "idle" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestNewEngineRejectsOutOfRangeDuration(t *testing.T) {
	t.Setenv("STILLPOINT_LOG_LEVEL", "off")
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	app, err := New(cfg)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()
	if _, err := app.NewEngine(EngineSettings{DurationMinutes: 11}); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}
