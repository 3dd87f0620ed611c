package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stillpoint/internal/modules/practice/domain"
	practiceout "stillpoint/internal/modules/practice/port/out"

	_ "modernc.org/sqlite"
)

// SQLiteHistoryIndex is a rebuildable projection of the session journal.
type SQLiteHistoryIndex struct {
	db *sql.DB
}

var _ practiceout.HistoryIndex = (*SQLiteHistoryIndex)(nil)

func NewSQLiteHistoryIndex(dbPath string) (*SQLiteHistoryIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	index := &SQLiteHistoryIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

func (s *SQLiteHistoryIndex) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  activity_type TEXT NOT NULL,
  title TEXT NOT NULL,
  emotion TEXT,
  target_minutes INTEGER NOT NULL,
  actual_minutes INTEGER NOT NULL,
  karma_points INTEGER NOT NULL,
  completed INTEGER NOT NULL,
  video_url TEXT,
  audio_url TEXT,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_started_at ON sessions(started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryIndex) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("reset sessions: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryIndex) Upsert(ctx context.Context, record domain.SessionRecord) error {
	const stmt = `
INSERT INTO sessions (id, activity_type, title, emotion, target_minutes, actual_minutes, karma_points, completed, video_url, audio_url, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  activity_type=excluded.activity_type,
  title=excluded.title,
  emotion=excluded.emotion,
  target_minutes=excluded.target_minutes,
  actual_minutes=excluded.actual_minutes,
  karma_points=excluded.karma_points,
  completed=excluded.completed,
  video_url=excluded.video_url,
  audio_url=excluded.audio_url,
  started_at=excluded.started_at,
  ended_at=excluded.ended_at;
`
	completed := 0
	if record.Natural {
		completed = 1
	}
	_, err := s.db.ExecContext(ctx, stmt,
		record.SessionID,
		record.ActivityType,
		record.Title,
		record.Emotion,
		record.TargetDurationMinutes,
		record.ActualDurationMinutes,
		record.KarmaPoints,
		completed,
		record.VideoURL,
		record.AudioURL,
		record.StartedAt.UTC().Format(time.RFC3339),
		record.EndedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryIndex) List(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	const query = `
SELECT id, activity_type, title, emotion, target_minutes, actual_minutes, karma_points, completed, video_url, audio_url, started_at, ended_at
FROM sessions
ORDER BY started_at DESC, id ASC
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []domain.SessionRecord{}
	for rows.Next() {
		var (
			record             domain.SessionRecord
			completed          int
			emotion, video     sql.NullString
			audio              sql.NullString
			startedAt, endedAt string
		)
		if err := rows.Scan(&record.SessionID, &record.ActivityType, &record.Title, &emotion,
			&record.TargetDurationMinutes, &record.ActualDurationMinutes, &record.KarmaPoints, &completed,
			&video, &audio, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		record.Emotion = emotion.String
		record.VideoURL = video.String
		record.AudioURL = audio.String
		record.Natural = completed == 1
		record.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		record.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *SQLiteHistoryIndex) Close() error {
	return s.db.Close()
}
