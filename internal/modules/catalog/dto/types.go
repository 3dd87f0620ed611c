package dto

type SelectInput struct {
	ActivityType    string
	CategoryID      string
	Emotion         string
	DurationMinutes int
}

type ListInput struct {
	ActivityType string
	CategoryID   string
}

type ConfigurationOutput struct {
	ID              string
	ActivityType    string
	CategoryID      string
	Emotion         string
	DurationMinutes int
	DurationLabel   string
	KarmaPoints     int
	Title           string
	Description     string
	Synthetic       bool
}

type ClipOutput struct {
	ID                    string
	Title                 string
	Description           string
	VideoURL              string
	AudioURL              string
	ActivityType          string
	SourceConfigurationID string
	KarmaPoints           int
}

type SelectionOutput struct {
	Candidates                []ConfigurationOutput
	Configuration             ConfigurationOutput
	Clip                      *ClipOutput
	ClipCount                 int
	NoConfigurationForEmotion bool
	CatalogUnavailable        bool
}
