package dto

import "time"

type ConfigurationView struct {
	ID              string
	Title           string
	DurationMinutes int
	KarmaPoints     int
	Synthetic       bool
}

type ClipView struct {
	ID                    string
	Title                 string
	VideoURL              string
	AudioURL              string
	SourceConfigurationID string
}

type SelectionView struct {
	Candidates                []ConfigurationView
	Configuration             ConfigurationView
	Clip                      *ClipView
	NoConfigurationForEmotion bool
	CatalogUnavailable        bool
}

type MediaView struct {
	Channel string
	URL     string
	Playing bool
	Error   string
}

type SessionView struct {
	ID               string
	Title            string
	StartedAt        time.Time
	TargetMinutes    int
	RemainingSeconds int
	Authenticated    bool
	Media            []MediaView
}

type RewardView struct {
	Natural          bool
	TargetMinutes    int
	CompletedMinutes int
	KarmaAvailable   int
	KarmaAwarded     int
	Fraction         float64
}

type PersistenceView struct {
	Status  string
	Message string
}

// Snapshot is an immutable copy of engine state. Version increases with every
// change so subscribers can drop deliveries that arrive out of order.
type Snapshot struct {
	Version         uint64
	Status          string
	ActivityType    string
	Emotion         string
	DurationMinutes int
	Selecting       bool
	SelectionRuns   int
	Selection       SelectionView
	Session         *SessionView
	Reward          *RewardView
	Persistence     PersistenceView
}

type HistoryListInput struct {
	Limit int
}

type HistoryEntry struct {
	SessionID             string
	ActivityType          string
	Title                 string
	Emotion               string
	TargetDurationMinutes int
	ActualDurationMinutes int
	KarmaPoints           int
	Natural               bool
	StartedAt             time.Time
	EndedAt               time.Time
}

type ReindexOutput struct {
	Indexed int
}

type DoctorResult struct {
	Binary          string
	BinaryReachable bool
	ChecksumChecked bool
	ChecksumValid   bool
	HandshakeOK     bool
	PlayerName      string
	PlayerVersion   string
	Channels        []string
	Error           string
}
