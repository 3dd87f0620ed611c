package out

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"stillpoint/internal/modules/catalog/domain"
	catalogout "stillpoint/internal/modules/catalog/port/out"
)

type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type HTTPCatalogConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *zap.Logger
}

// HTTPCatalog reads configurations and clips from the content service.
// Every response is wrapped in a {success, message, data} envelope.
type HTTPCatalog struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     *zap.Logger
}

var (
	_ catalogout.ConfigurationSource = (*HTTPCatalog)(nil)
	_ catalogout.ClipSource          = (*HTTPCatalog)(nil)
)

func NewHTTPCatalog(cfg HTTPCatalogConfig) (*HTTPCatalog, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPCatalog{httpClient: httpClient, baseURL: base, tokens: cfg.Tokens, logger: logger}, nil
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type configurationPayload struct {
	ID           string `json:"id"`
	ActivityType string `json:"activity_type"`
	CategoryID   string `json:"category_id"`
	Emotion      string `json:"emotion"`
	Duration     string `json:"duration"`
	KarmaPoints  int    `json:"karma_points"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}

type clipPayload struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	VideoURL        string `json:"video_url"`
	AudioURL        string `json:"audio_url"`
	ConfigurationID string `json:"configuration_id"`
	ActivityType    string `json:"activity_type"`
}

func (c *HTTPCatalog) ListConfigurations(ctx context.Context, activity domain.ActivityType, categoryID string) ([]domain.Configuration, error) {
	query := url.Values{}
	query.Set("activity_type", string(activity))
	if categoryID != "" {
		query.Set("category_id", categoryID)
	}
	payload, err := doGet[[]configurationPayload](ctx, c, "/configurations?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigurationFetch, err)
	}
	out := make([]domain.Configuration, 0, len(payload))
	for _, item := range payload {
		cfg, ok := toConfiguration(item, c.logger)
		if !ok {
			continue
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (c *HTTPCatalog) ListClipsForConfiguration(ctx context.Context, configurationID string) ([]domain.Clip, error) {
	payload, err := doGet[[]clipPayload](ctx, c, "/configurations/"+url.PathEscape(configurationID)+"/clips")
	if err != nil {
		return nil, fmt.Errorf("%w: configuration %s: %v", domain.ErrClipFetch, configurationID, err)
	}
	out := make([]domain.Clip, 0, len(payload))
	for _, item := range payload {
		clip := domain.Clip{
			ID:              item.ID,
			Title:           item.Title,
			Description:     item.Description,
			VideoURL:        item.VideoURL,
			AudioURL:        item.AudioURL,
			ConfigurationID: item.ConfigurationID,
			ActivityType:    domain.ActivityType(item.ActivityType),
		}
		if clip.ConfigurationID == "" {
			clip.ConfigurationID = configurationID
		}
		out = append(out, clip)
	}
	return out, nil
}

func doGet[T any](ctx context.Context, c *HTTPCatalog, path string) (T, error) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return zero, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	decoded := envelope[T]{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	if !decoded.Success {
		return zero, fmt.Errorf("service rejected request: %s", decoded.Message)
	}
	return decoded.Data, nil
}

func toConfiguration(item configurationPayload, logger *zap.Logger) (domain.Configuration, bool) {
	minutes, err := domain.ParseDurationMinutes(item.Duration)
	if err != nil {
		logger.Warn("dropping configuration with unparseable duration",
			zap.String("configuration_id", item.ID),
			zap.String("duration", item.Duration),
			zap.Error(err),
		)
		return domain.Configuration{}, false
	}
	return domain.Configuration{
		ID:              item.ID,
		ActivityType:    domain.ActivityType(item.ActivityType),
		CategoryID:      item.CategoryID,
		Emotion:         domain.Emotion(item.Emotion),
		DurationMinutes: minutes,
		DurationLabel:   item.Duration,
		KarmaPoints:     item.KarmaPoints,
		Title:           item.Title,
		Description:     item.Description,
	}, true
}
