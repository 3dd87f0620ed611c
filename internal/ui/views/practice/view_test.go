package practice

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	practicedto "stillpoint/internal/modules/practice/dto"
)

type fakeEngine struct {
	mu        sync.Mutex
	snapshot  practicedto.Snapshot
	durations []int
	emotions  []string
	started   int
}

func (f *fakeEngine) Snapshot() practicedto.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeEngine) Subscribe(func(practicedto.Snapshot)) func() { return func() {} }

func (f *fakeEngine) SetEmotion(emotion string) error {
	f.emotions = append(f.emotions, emotion)
	return nil
}

func (f *fakeEngine) SetDuration(minutes int) error {
	f.durations = append(f.durations, minutes)
	return nil
}

func (f *fakeEngine) Start(context.Context) error { f.started++; return nil }
func (f *fakeEngine) End(context.Context) error   { return nil }
func (f *fakeEngine) AcknowledgeReward() error    { return nil }

func idleEngine() *fakeEngine {
	return &fakeEngine{snapshot: practicedto.Snapshot{
		Version:         3,
		Status:          "idle",
		ActivityType:    "silence",
		Emotion:         "calm",
		DurationMinutes: 5,
		Selection: practicedto.SelectionView{
			Configuration: practicedto.ConfigurationView{Title: "Still water", DurationMinutes: 5, KarmaPoints: 12},
		},
	}}
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return cmd()
}

func TestKeysDriveEngineSettings(t *testing.T) {
	engine := idleEngine()
	m := New(engine, []string{"calm", "happy", "sad"})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if msg, ok := run(t, cmd).(ActionMsg); !ok || msg.Err != nil {
		t.Fatalf("unexpected message %#v", msg)
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	run(t, cmd)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, cmd)

	if len(engine.durations) != 1 || engine.durations[0] != 6 {
		t.Fatalf("expected duration 6, got %v", engine.durations)
	}
	if len(engine.emotions) != 1 || engine.emotions[0] != "happy" {
		t.Fatalf("expected next emotion happy, got %v", engine.emotions)
	}
	if engine.started != 1 {
		t.Fatalf("expected start, got %d", engine.started)
	}
}

func TestDurationKeysStayInRange(t *testing.T) {
	engine := idleEngine()
	engine.snapshot.DurationMinutes = 10
	m := New(engine, nil)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRight}); cmd != nil {
		t.Fatalf("expected no command past the maximum duration")
	}
}

func TestStaleSnapshotsAreDropped(t *testing.T) {
	engine := idleEngine()
	m := New(engine, nil)

	stale := engine.snapshot
	stale.Version = 2
	stale.Emotion = "sad"
	m, _ = m.Update(SnapshotMsg{Snapshot: stale})
	if m.Snapshot().Emotion != "calm" {
		t.Fatalf("stale snapshot applied: %+v", m.Snapshot())
	}

	fresh := engine.snapshot
	fresh.Version = 4
	fresh.Emotion = "happy"
	m, _ = m.Update(SnapshotMsg{Snapshot: fresh})
	if m.Snapshot().Emotion != "happy" {
		t.Fatalf("fresh snapshot not applied: %+v", m.Snapshot())
	}
}

func TestRewardViewShowsPersistence(t *testing.T) {
	engine := idleEngine()
	m := New(engine, nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	finished := engine.snapshot
	finished.Version = 9
	finished.Status = "finished"
	finished.Reward = &practicedto.RewardView{TargetMinutes: 10, CompletedMinutes: 4, KarmaAvailable: 20, KarmaAwarded: 8, Fraction: 0.4}
	finished.Persistence = practicedto.PersistenceView{Status: "unauthenticated", Message: "must authenticate to save progress"}
	m, _ = m.Update(SnapshotMsg{Snapshot: finished})

	view := m.View()
	for _, want := range []string{"ended early", "4 of 10 minutes", "karma +8 of 20", "must authenticate to save progress"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
