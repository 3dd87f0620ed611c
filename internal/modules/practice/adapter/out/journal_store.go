package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"stillpoint/internal/modules/practice/domain"
	practiceout "stillpoint/internal/modules/practice/port/out"
	"stillpoint/internal/platform/markdown"
	"stillpoint/internal/platform/slug"
)

const summaryBlock = "summary"

type journalMeta struct {
	SchemaVersion int       `yaml:"schema_version"`
	ID            string    `yaml:"id"`
	ActivityType  string    `yaml:"activity_type"`
	Title         string    `yaml:"title"`
	Emotion       string    `yaml:"emotion"`
	TargetMinutes int       `yaml:"target_minutes"`
	ActualMinutes int       `yaml:"actual_minutes"`
	KarmaPoints   int       `yaml:"karma_points"`
	Completed     bool      `yaml:"completed"`
	VideoURL      string    `yaml:"video_url,omitempty"`
	AudioURL      string    `yaml:"audio_url,omitempty"`
	StartedAt     time.Time `yaml:"started_at"`
	EndedAt       time.Time `yaml:"ended_at"`
}

// JournalStore keeps one markdown note per session under
// <dir>/YYYY/MM/DD and mirrors it into the history index.
type JournalStore struct {
	dir    string
	index  practiceout.HistoryIndex
	logger *zap.Logger
}

var (
	_ practiceout.StatsStore    = (*JournalStore)(nil)
	_ practiceout.JournalReader = (*JournalStore)(nil)
)

func NewJournalStore(dir string, index practiceout.HistoryIndex, logger *zap.Logger) *JournalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalStore{dir: dir, index: index, logger: logger}
}

func (s *JournalStore) SaveSession(ctx context.Context, record domain.SessionRecord) (practiceout.SaveResult, error) {
	path := s.notePath(record)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return practiceout.SaveResult{}, fmt.Errorf("create journal dir: %w", err)
	}

	body := "## Reflection\n\n"
	if existing, err := os.ReadFile(path); err == nil {
		if _, previous, splitErr := markdown.Split(string(existing)); splitErr == nil && strings.TrimSpace(previous) != "" {
			body = previous
		}
	}
	body = markdown.ReplaceBlock(body, summaryBlock, summaryLines(record))
	rendered, err := markdown.Render(toJournalMeta(record), "# "+record.Title+"\n\n"+stripHeading(body))
	if err != nil {
		return practiceout.SaveResult{}, err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return practiceout.SaveResult{}, fmt.Errorf("write journal note: %w", err)
	}

	if s.index != nil {
		if err := s.index.Upsert(ctx, record); err != nil {
			s.logger.Warn("history index not updated, run history reindex",
				zap.String("session_id", record.SessionID),
				zap.Error(err))
		}
	}
	return practiceout.SaveResult{
		Success: true,
		Message: "saved to journal",
		Data:    map[string]any{"path": path},
	}, nil
}

func (s *JournalStore) ListRecords(_ context.Context) ([]domain.SessionRecord, error) {
	paths := []string{}
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.SessionRecord{}, nil
		}
		return nil, fmt.Errorf("walk journal: %w", err)
	}
	sort.Strings(paths)

	out := make([]domain.SessionRecord, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		meta := journalMeta{}
		if _, err := markdown.Decode(string(content), &meta); err != nil {
			s.logger.Warn("skipping unreadable journal note", zap.String("path", path), zap.Error(err))
			continue
		}
		if meta.ID == "" {
			s.logger.Warn("skipping journal note without id", zap.String("path", path))
			continue
		}
		out = append(out, fromJournalMeta(meta))
	}
	return out, nil
}

func (s *JournalStore) notePath(record domain.SessionRecord) string {
	when := record.StartedAt
	if when.IsZero() {
		when = record.EndedAt
	}
	when = when.UTC()
	suffix := record.SessionID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	name := fmt.Sprintf("%s-%s-%s.md", when.Format("150405"), slug.Make(record.Title), slug.Make(suffix))
	return filepath.Join(s.dir, when.Format("2006"), when.Format("01"), when.Format("02"), name)
}

func summaryLines(record domain.SessionRecord) string {
	outcome := "ended early"
	if record.Natural {
		outcome = "completed"
	}
	lines := []string{
		fmt.Sprintf("- Activity: %s", record.ActivityType),
		fmt.Sprintf("- Emotion: %s", record.Emotion),
		fmt.Sprintf("- Duration: %d of %d minutes (%s)", record.ActualDurationMinutes, record.TargetDurationMinutes, outcome),
		fmt.Sprintf("- Karma: %d", record.KarmaPoints),
	}
	if record.VideoURL != "" {
		lines = append(lines, "- Video: "+record.VideoURL)
	}
	if record.AudioURL != "" {
		lines = append(lines, "- Audio: "+record.AudioURL)
	}
	return strings.Join(lines, "\n")
}

func stripHeading(body string) string {
	trimmed := strings.TrimLeft(body, "\n")
	if strings.HasPrefix(trimmed, "# ") {
		if idx := strings.Index(trimmed, "\n"); idx >= 0 {
			return strings.TrimLeft(trimmed[idx+1:], "\n")
		}
		return ""
	}
	return trimmed
}

func toJournalMeta(record domain.SessionRecord) journalMeta {
	return journalMeta{
		SchemaVersion: domain.SchemaVersion,
		ID:            record.SessionID,
		ActivityType:  record.ActivityType,
		Title:         record.Title,
		Emotion:       record.Emotion,
		TargetMinutes: record.TargetDurationMinutes,
		ActualMinutes: record.ActualDurationMinutes,
		KarmaPoints:   record.KarmaPoints,
		Completed:     record.Natural,
		VideoURL:      record.VideoURL,
		AudioURL:      record.AudioURL,
		StartedAt:     record.StartedAt.UTC(),
		EndedAt:       record.EndedAt.UTC(),
	}
}

func fromJournalMeta(meta journalMeta) domain.SessionRecord {
	return domain.SessionRecord{
		SessionID:             meta.ID,
		ActivityType:          meta.ActivityType,
		Title:                 meta.Title,
		TargetDurationMinutes: meta.TargetMinutes,
		ActualDurationMinutes: meta.ActualMinutes,
		KarmaPoints:           meta.KarmaPoints,
		Emotion:               meta.Emotion,
		VideoURL:              meta.VideoURL,
		AudioURL:              meta.AudioURL,
		Natural:               meta.Completed,
		StartedAt:             meta.StartedAt,
		EndedAt:               meta.EndedAt,
	}
}
