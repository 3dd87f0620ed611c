package out_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	catalogdto "stillpoint/internal/modules/catalog/dto"
	practiceadapter "stillpoint/internal/modules/practice/adapter/out"
	"stillpoint/internal/modules/practice/domain"
)

type stubCatalog struct {
	input catalogdto.SelectInput
	out   catalogdto.SelectionOutput
	err   error
}

func (s *stubCatalog) ListConfigurations(context.Context, catalogdto.ListInput) ([]catalogdto.ConfigurationOutput, error) {
	return nil, nil
}

func (s *stubCatalog) Select(_ context.Context, input catalogdto.SelectInput) (catalogdto.SelectionOutput, error) {
	s.input = input
	return s.out, s.err
}

func TestCatalogSelectorMapsSelection(t *testing.T) {
	t.Parallel()
	cfg := catalogdto.ConfigurationOutput{ID: "c5", Title: "Five", DurationMinutes: 5, KarmaPoints: 12}
	catalog := &stubCatalog{out: catalogdto.SelectionOutput{
		Candidates:    []catalogdto.ConfigurationOutput{cfg},
		Configuration: cfg,
		Clip:          &catalogdto.ClipOutput{ID: "k1", Title: "Rain", VideoURL: "https://cdn/v.mp4", AudioURL: "https://cdn/a.mp3", SourceConfigurationID: "c5", KarmaPoints: 12},
		ClipCount:     3,
	}}
	selector := practiceadapter.NewCatalogSelector(catalog)

	got, err := selector.Select(context.Background(), domain.SelectionRequest{ActivityType: "silence", Emotion: "calm", DurationMinutes: 7})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if catalog.input != (catalogdto.SelectInput{ActivityType: "silence", Emotion: "calm", DurationMinutes: 7}) {
		t.Fatalf("unexpected catalog input %+v", catalog.input)
	}
	want := domain.SelectionState{
		Candidates:    []domain.Configuration{{ID: "c5", Title: "Five", DurationMinutes: 5, KarmaPoints: 12}},
		Configuration: domain.Configuration{ID: "c5", Title: "Five", DurationMinutes: 5, KarmaPoints: 12},
		Clip:          &domain.Clip{ID: "k1", Title: "Rain", VideoURL: "https://cdn/v.mp4", AudioURL: "https://cdn/a.mp3", SourceConfigurationID: "c5", KarmaPoints: 12},
		VideoURL:      "https://cdn/v.mp4",
		AudioURL:      "https://cdn/a.mp3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogSelectorPropagatesError(t *testing.T) {
	t.Parallel()
	boom := errors.New("invalid emotion")
	selector := practiceadapter.NewCatalogSelector(&stubCatalog{err: boom})
	if _, err := selector.Select(context.Background(), domain.SelectionRequest{}); !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
}
