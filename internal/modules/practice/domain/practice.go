package domain

import (
	"errors"
	"time"
)

const SchemaVersion = 1

type Status string

const (
	StatusIdle     Status = "idle"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

var (
	ErrPlaybackStart        = errors.New("playback start failed")
	ErrUnauthenticated      = errors.New("must authenticate to save progress")
	ErrPersistenceTransport = errors.New("session could not be saved")
	ErrAlreadySubmitted     = errors.New("session already submitted")
)

// Configuration is the practice-side view of a matched configuration.
// Synthetic configurations carry no id and no media.
type Configuration struct {
	ID              string
	Title           string
	Description     string
	DurationMinutes int
	KarmaPoints     int
	Synthetic       bool
}

type Clip struct {
	ID                    string
	Title                 string
	VideoURL              string
	AudioURL              string
	SourceConfigurationID string
	KarmaPoints           int
}

type SelectionRequest struct {
	ActivityType    string
	CategoryID      string
	Emotion         string
	DurationMinutes int
}

type SelectionState struct {
	Candidates                []Configuration
	Configuration             Configuration
	Clip                      *Clip
	VideoURL                  string
	AudioURL                  string
	NoConfigurationForEmotion bool
	CatalogUnavailable        bool
}

// SyntheticSelection is the selection used before any pipeline run completes
// and whenever nothing playable resolves.
func SyntheticSelection(durationMinutes int) SelectionState {
	return SelectionState{
		Candidates: []Configuration{},
		Configuration: Configuration{
			DurationMinutes: durationMinutes,
			KarmaPoints:     durationMinutes,
			Synthetic:       true,
		},
	}
}

func (s SelectionState) Title() string {
	if s.Clip != nil && s.Clip.Title != "" {
		return s.Clip.Title
	}
	if s.Configuration.Title != "" {
		return s.Configuration.Title
	}
	return "Untitled session"
}

type MediaChannel string

const (
	ChannelVideo MediaChannel = "video"
	ChannelAudio MediaChannel = "audio"
)

type MediaRequest struct {
	Channel MediaChannel
	URL     string
	Title   string
}

type SessionRecord struct {
	SessionID             string
	ActivityType          string
	Title                 string
	TargetDurationMinutes int
	ActualDurationMinutes int
	KarmaPoints           int
	Emotion               string
	VideoURL              string
	AudioURL              string
	Natural               bool
	StartedAt             time.Time
	EndedAt               time.Time
}

type PersistenceStatus string

const (
	PersistenceNone            PersistenceStatus = ""
	PersistencePending         PersistenceStatus = "pending"
	PersistenceSaved           PersistenceStatus = "saved"
	PersistenceUnauthenticated PersistenceStatus = "unauthenticated"
	PersistenceFailed          PersistenceStatus = "failed"
)

type RecordOutcome struct {
	Status  PersistenceStatus
	Message string
}

type PlayerMetadata struct {
	Name     string
	Version  string
	Channels []MediaChannel
}

const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 10
)
