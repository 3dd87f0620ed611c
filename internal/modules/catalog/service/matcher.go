package service

import (
	"sort"

	"stillpoint/internal/modules/catalog/domain"
)

// MatchConfigurations picks the candidate configurations for an emotion and
// desired duration. It returns every exact-duration match in catalog order;
// otherwise the single nearest entry, ties going to the earlier catalog entry.
// An empty result means no configuration exists for the emotion.
func MatchConfigurations(catalog []domain.Configuration, emotion domain.Emotion, durationMinutes int) []domain.Configuration {
	byEmotion := make([]domain.Configuration, 0, len(catalog))
	for _, cfg := range catalog {
		if cfg.Emotion.Equal(emotion) {
			byEmotion = append(byEmotion, cfg)
		}
	}
	if len(byEmotion) == 0 {
		return []domain.Configuration{}
	}

	exact := make([]domain.Configuration, 0, len(byEmotion))
	for _, cfg := range byEmotion {
		if cfg.DurationMinutes == durationMinutes {
			exact = append(exact, cfg)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	sort.SliceStable(byEmotion, func(i, j int) bool {
		return distance(byEmotion[i].DurationMinutes, durationMinutes) < distance(byEmotion[j].DurationMinutes, durationMinutes)
	})
	return byEmotion[:1]
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
