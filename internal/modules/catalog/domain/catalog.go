package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type ActivityType string

const (
	ActivitySilence    ActivityType = "silence"
	ActivityMeditation ActivityType = "meditation"
	ActivityPrayer     ActivityType = "prayer"
	ActivityChanting   ActivityType = "chanting"
)

func (a ActivityType) Validate() error {
	switch a {
	case ActivitySilence, ActivityMeditation, ActivityPrayer, ActivityChanting:
		return nil
	default:
		return fmt.Errorf("unsupported activity type %q", string(a))
	}
}

// Emotion is compared case-insensitively everywhere.
type Emotion string

const (
	EmotionCalm     Emotion = "calm"
	EmotionHappy    Emotion = "happy"
	EmotionSad      Emotion = "sad"
	EmotionAnxious  Emotion = "anxious"
	EmotionStressed Emotion = "stressed"
	EmotionAngry    Emotion = "angry"
	EmotionTired    Emotion = "tired"
	EmotionGrateful Emotion = "grateful"
)

// suggestedEmotions seeds pickers. Catalogs may define any other emotion.
var suggestedEmotions = []Emotion{
	EmotionCalm, EmotionHappy, EmotionSad, EmotionAnxious,
	EmotionStressed, EmotionAngry, EmotionTired, EmotionGrateful,
}

func Emotions() []Emotion {
	out := make([]Emotion, len(suggestedEmotions))
	copy(out, suggestedEmotions)
	return out
}

func (e Emotion) Normalize() Emotion {
	return Emotion(strings.ToLower(strings.TrimSpace(string(e))))
}

func (e Emotion) Equal(other Emotion) bool {
	return strings.EqualFold(strings.TrimSpace(string(e)), strings.TrimSpace(string(other)))
}

var ErrEmptyEmotion = errors.New("emotion is required")

func (e Emotion) Validate() error {
	if e.Normalize() == "" {
		return ErrEmptyEmotion
	}
	return nil
}

const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 10
)

var (
	ErrConfigurationFetch = errors.New("configuration catalog unavailable")
	ErrClipFetch          = errors.New("clip fetch failed")
	ErrInvalidDuration    = errors.New("invalid duration")
)

// Configuration is a practice template presenting default content for an activity type.
type Configuration struct {
	ID              string
	ActivityType    ActivityType
	CategoryID      string
	Emotion         Emotion
	DurationMinutes int
	DurationLabel   string
	KarmaPoints     int
	Title           string
	Description     string
}

type Clip struct {
	ID              string
	Title           string
	Description     string
	VideoURL        string
	AudioURL        string
	ConfigurationID string
	ActivityType    ActivityType
}

// ResolvedClip is a clip annotated with the configuration it was fetched for.
type ResolvedClip struct {
	Clip
	SourceConfigurationID string
	KarmaPoints           int
}

// Selection is the outcome of matching plus clip resolution.
type Selection struct {
	Candidates                []Configuration
	Configuration             Configuration
	Synthetic                 bool
	Clip                      *ResolvedClip
	Clips                     []ResolvedClip
	NoConfigurationForEmotion bool
}

// SyntheticConfiguration stands in when nothing playable matches.
func SyntheticConfiguration(activity ActivityType, durationMinutes int) Configuration {
	return Configuration{
		ActivityType:    activity,
		DurationMinutes: durationMinutes,
		KarmaPoints:     durationMinutes,
	}
}

var leadingNumber = regexp.MustCompile(`^\s*(\d+)\s*(minutes?|mins?|m)?\s*$`)

// ParseDurationMinutes turns "5 minutes", "1 minute", "10 min" or "7" into minutes.
func ParseDurationMinutes(raw string) (int, error) {
	match := leadingNumber.FindStringSubmatch(strings.ToLower(raw))
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	minutes, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidDuration, raw)
	}
	return minutes, nil
}

func ValidateDuration(minutes int) error {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return fmt.Errorf("%w: %d must be between %d and %d minutes", ErrInvalidDuration, minutes, MinDurationMinutes, MaxDurationMinutes)
	}
	return nil
}
