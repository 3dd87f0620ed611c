package out

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"stillpoint/internal/modules/catalog/domain"
	catalogout "stillpoint/internal/modules/catalog/port/out"
)

// FileCatalog serves the catalog from a local yaml document:
//
//	configurations:
//	  - id: cfg-calm-5
//	    activity_type: silence
//	    emotion: calm
//	    duration: 5 minutes
//	    karma_points: 15
//	clips:
//	  - id: clip-1
//	    configuration_id: cfg-calm-5
//	    audio_url: file:///music/calm.mp3
//
// The file is re-read on every call so edits are picked up without restart.
type FileCatalog struct {
	path   string
	logger *zap.Logger
}

var (
	_ catalogout.ConfigurationSource = (*FileCatalog)(nil)
	_ catalogout.ClipSource          = (*FileCatalog)(nil)
)

type catalogDocument struct {
	Configurations []configurationEntry `yaml:"configurations"`
	Clips          []clipEntry          `yaml:"clips"`
}

type configurationEntry struct {
	ID           string `yaml:"id"`
	ActivityType string `yaml:"activity_type"`
	CategoryID   string `yaml:"category_id"`
	Emotion      string `yaml:"emotion"`
	Duration     string `yaml:"duration"`
	KarmaPoints  int    `yaml:"karma_points"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
}

type clipEntry struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	VideoURL        string `yaml:"video_url"`
	AudioURL        string `yaml:"audio_url"`
	ConfigurationID string `yaml:"configuration_id"`
	ActivityType    string `yaml:"activity_type"`
}

func NewFileCatalog(path string, logger *zap.Logger) *FileCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCatalog{path: path, logger: logger}
}

func (f *FileCatalog) ListConfigurations(_ context.Context, activity domain.ActivityType, categoryID string) ([]domain.Configuration, error) {
	doc, err := f.load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigurationFetch, err)
	}
	out := make([]domain.Configuration, 0, len(doc.Configurations))
	for _, entry := range doc.Configurations {
		if domain.ActivityType(entry.ActivityType) != activity {
			continue
		}
		if categoryID != "" && entry.CategoryID != categoryID {
			continue
		}
		cfg, ok := toConfiguration(configurationPayload(entry), f.logger)
		if !ok {
			continue
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (f *FileCatalog) ListClipsForConfiguration(_ context.Context, configurationID string) ([]domain.Clip, error) {
	doc, err := f.load()
	if err != nil {
		return nil, fmt.Errorf("%w: configuration %s: %v", domain.ErrClipFetch, configurationID, err)
	}
	out := []domain.Clip{}
	for _, entry := range doc.Clips {
		if entry.ConfigurationID != configurationID {
			continue
		}
		out = append(out, domain.Clip{
			ID:              entry.ID,
			Title:           entry.Title,
			Description:     entry.Description,
			VideoURL:        entry.VideoURL,
			AudioURL:        entry.AudioURL,
			ConfigurationID: entry.ConfigurationID,
			ActivityType:    domain.ActivityType(entry.ActivityType),
		})
	}
	return out, nil
}

func (f *FileCatalog) load() (catalogDocument, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return catalogDocument{}, fmt.Errorf("catalog file %s not found", f.path)
		}
		return catalogDocument{}, fmt.Errorf("read catalog file: %w", err)
	}
	doc := catalogDocument{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return catalogDocument{}, fmt.Errorf("decode catalog file %s: %w", f.path, err)
	}
	return doc, nil
}
