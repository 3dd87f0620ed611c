package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stillpoint/internal/modules/practice/domain"
	practiceout "stillpoint/internal/modules/practice/port/out"
)

type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type HTTPStatsConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
}

// HTTPStatsStore posts finished sessions to the stats service.
type HTTPStatsStore struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

func NewHTTPStatsStore(cfg HTTPStatsConfig) (practiceout.StatsStore, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("stats base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPStatsStore{httpClient: httpClient, baseURL: base, tokens: cfg.Tokens}, nil
}

type sessionPayload struct {
	SessionID             string `json:"session_id"`
	ActivityType          string `json:"activity_type"`
	Title                 string `json:"title"`
	TargetDurationMinutes int    `json:"target_duration"`
	ActualDurationMinutes int    `json:"actual_duration"`
	KarmaPoints           int    `json:"karma_points"`
	Emotion               string `json:"emotion"`
	VideoURL              string `json:"video_url,omitempty"`
	AudioURL              string `json:"audio_url,omitempty"`
	Completed             bool   `json:"completed"`
	StartedAt             string `json:"started_at,omitempty"`
	EndedAt               string `json:"ended_at,omitempty"`
}

type saveEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func (s *HTTPStatsStore) SaveSession(ctx context.Context, record domain.SessionRecord) (practiceout.SaveResult, error) {
	payload := sessionPayload{
		SessionID:             record.SessionID,
		ActivityType:          record.ActivityType,
		Title:                 record.Title,
		TargetDurationMinutes: record.TargetDurationMinutes,
		ActualDurationMinutes: record.ActualDurationMinutes,
		KarmaPoints:           record.KarmaPoints,
		Emotion:               record.Emotion,
		VideoURL:              record.VideoURL,
		AudioURL:              record.AudioURL,
		Completed:             record.Natural,
		StartedAt:             formatTime(record.StartedAt),
		EndedAt:               formatTime(record.EndedAt),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return practiceout.SaveResult{}, fmt.Errorf("marshal session: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return practiceout.SaveResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.tokens != nil {
		if token, ok := s.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return practiceout.SaveResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return practiceout.SaveResult{}, fmt.Errorf("read response: %w", err)
	}
	decoded := saveEnvelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil && resp.StatusCode < 300 {
			return practiceout.SaveResult{}, fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := decoded.Message
		if message == "" {
			message = strings.TrimSpace(string(raw))
		}
		return practiceout.SaveResult{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, message)
	}
	return practiceout.SaveResult{Success: decoded.Success, Message: decoded.Message, Data: decoded.Data}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
