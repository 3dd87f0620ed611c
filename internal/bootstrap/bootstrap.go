package bootstrap

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	cataloginadapter "stillpoint/internal/modules/catalog/adapter/in"
	catalogoutadapter "stillpoint/internal/modules/catalog/adapter/out"
	catalogdomain "stillpoint/internal/modules/catalog/domain"
	catalogout "stillpoint/internal/modules/catalog/port/out"
	catalogservice "stillpoint/internal/modules/catalog/service"
	catalogusecase "stillpoint/internal/modules/catalog/usecase"
	practiceinadapter "stillpoint/internal/modules/practice/adapter/in"
	practiceoutadapter "stillpoint/internal/modules/practice/adapter/out"
	practicein "stillpoint/internal/modules/practice/port/in"
	practiceout "stillpoint/internal/modules/practice/port/out"
	practiceservice "stillpoint/internal/modules/practice/service"
	practiceusecase "stillpoint/internal/modules/practice/usecase"
	"stillpoint/internal/platform/clock"
	"stillpoint/internal/platform/config"
	"stillpoint/internal/platform/credentials"
	"stillpoint/internal/platform/id"
	"stillpoint/internal/platform/logging"
	uiapp "stillpoint/internal/ui/app"
)

type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Credentials *credentials.FileStore
	CatalogCLI  cataloginadapter.CLIHandler
	PracticeCLI practiceinadapter.CLIHandler
	Emotions    []string

	history    practicein.HistoryUsecase
	engineDeps practiceusecase.EngineDeps
	closers    []func() error
}

// EngineSettings override the configured starting emotion and duration.
type EngineSettings struct {
	Emotion         string
	DurationMinutes int
}

type catalogSource interface {
	catalogout.ConfigurationSource
	catalogout.ClipSource
}

func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}
	app := &App{
		Config:      cfg,
		Logger:      logger,
		Credentials: credentials.NewFileStore(cfg.Auth.CredentialsFile, cfg.Auth.TokenEnv),
		Emotions:    emotionNames(),
	}

	catalog, err := app.newCatalog()
	if err != nil {
		return nil, err
	}
	catalogUC := catalogusecase.NewInteractor(catalog, catalogservice.NewClipResolver(catalog, logger), logger)

	stats, err := app.newStats()
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	player := practiceoutadapter.NewPluginPlayer(practiceoutadapter.PluginPlayerConfig{
		Binary:  cfg.Player.Binary,
		SHA256:  cfg.Player.SHA256,
		Command: cfg.Player.Command,
		Logger:  logger,
	})
	var media practiceout.MediaPlayer
	if strings.TrimSpace(cfg.Player.Binary) != "" {
		media = player
	}

	app.engineDeps = practiceusecase.EngineDeps{
		Clock:    clock.SystemClock{},
		IDs:      id.UUID{},
		Selector: practiceoutadapter.NewCatalogSelector(catalogUC),
		Player:   media,
		Auth:     app.Credentials,
		Recorder: practiceservice.NewSessionRecorder(app.Credentials, stats, logger),
		Logger:   logger,
	}
	app.CatalogCLI = cataloginadapter.NewCLIHandler(catalogUC)
	app.PracticeCLI = practiceinadapter.NewCLIHandler(
		app.history,
		practiceusecase.NewPlayerInteractor(practiceservice.NewPlayerDoctor(player)),
	)
	return app, nil
}

func (a *App) newCatalog() (catalogSource, error) {
	cfg := a.Config.Catalog
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return catalogoutadapter.NewFileCatalog(cfg.File, a.Logger), nil
	}
	catalog, err := catalogoutadapter.NewHTTPCatalog(catalogoutadapter.HTTPCatalogConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Tokens:  a.Credentials,
		Logger:  a.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("new http catalog: %w", err)
	}
	return catalog, nil
}

// newStats sends records to the stats service when one is configured and
// otherwise keeps them in the local journal, which also backs history.
func (a *App) newStats() (practiceout.StatsStore, error) {
	cfg := a.Config.Stats
	if strings.TrimSpace(cfg.BaseURL) != "" {
		store, err := practiceoutadapter.NewHTTPStatsStore(practiceoutadapter.HTTPStatsConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Tokens:  a.Credentials,
		})
		if err != nil {
			return nil, fmt.Errorf("new stats store: %w", err)
		}
		return store, nil
	}

	index, err := practiceoutadapter.NewSQLiteHistoryIndex(a.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new history index: %w", err)
	}
	a.closers = append(a.closers, index.Close)
	journal := practiceoutadapter.NewJournalStore(filepath.Join(a.Config.DataDir, "journal"), index, a.Logger)
	a.history = practiceusecase.NewHistoryInteractor(index, journal, a.Logger)
	return journal, nil
}

// NewEngine builds an engine for one practice screen. The caller owns it and
// must Close it.
func (a *App) NewEngine(settings EngineSettings) (practicein.Engine, error) {
	practice := a.Config.Practice
	cfg := practiceusecase.EngineConfig{
		ActivityType:    practice.ActivityType,
		CategoryID:      practice.CategoryID,
		Emotion:         practice.Emotion,
		DurationMinutes: practice.DurationMinutes,
		QuietPeriod:     practice.QuietPeriod,
		TickInterval:    practice.TickInterval,
	}
	if settings.Emotion != "" {
		cfg.Emotion = settings.Emotion
	}
	if settings.DurationMinutes != 0 {
		cfg.DurationMinutes = settings.DurationMinutes
	}
	return practiceusecase.NewEngine(cfg, a.engineDeps)
}

func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func RunTUI(app *App, settings EngineSettings) error {
	engine, err := app.NewEngine(settings)
	if err != nil {
		return err
	}
	defer engine.Close()

	model := uiapp.NewModel(engine, app.history, app.Emotions)
	defer model.Stop()
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func emotionNames() []string {
	emotions := catalogdomain.Emotions()
	names := make([]string, len(emotions))
	for i, emotion := range emotions {
		names[i] = string(emotion)
	}
	return names
}
