package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stillpoint/internal/bootstrap"
	catalogdto "stillpoint/internal/modules/catalog/dto"
	practiceinadapter "stillpoint/internal/modules/practice/adapter/in"
	practicedto "stillpoint/internal/modules/practice/dto"
	"stillpoint/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "stillpoint",
		Short:         "Guided practice sessions in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "data directory holding config.yaml, catalog.yaml and the journal")

	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newPracticeCmd(&dataDir))
	root.AddCommand(newCatalogCmd(&dataDir))
	root.AddCommand(newHistoryCmd(&dataDir))
	root.AddCommand(newAuthCmd(&dataDir))
	root.AddCommand(newPlayerCmd(&dataDir))
	return root
}

func loadApp(dataDir string) (*bootstrap.App, error) {
	cfg, err := config.New(dataDir)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

// withApp runs fn against a bootstrapped app and releases it afterwards.
func withApp(dataDir string, fn func(app *bootstrap.App) error) error {
	app, err := loadApp(dataDir)
	if err != nil {
		return err
	}
	return errors.Join(fn(app), app.Close())
}

func newTUICmd(dataDir *string) *cobra.Command {
	var settings bootstrap.EngineSettings
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the practice screen",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				return bootstrap.RunTUI(app, settings)
			})
		},
	}
	addSettingsFlags(cmd, &settings)
	return cmd
}

func addSettingsFlags(cmd *cobra.Command, settings *bootstrap.EngineSettings) {
	cmd.Flags().StringVar(&settings.Emotion, "emotion", "", "starting emotion (defaults to practice.emotion)")
	cmd.Flags().IntVar(&settings.DurationMinutes, "duration", 0, "session length in minutes, 1-10 (defaults to practice.duration_minutes)")
}

func newPracticeCmd(dataDir *string) *cobra.Command {
	practice := &cobra.Command{Use: "practice", Short: "Practice sessions"}

	var settings bootstrap.EngineSettings
	var endAfter time.Duration
	run := &cobra.Command{
		Use:   "run",
		Short: "Run one session headless; Ctrl-C ends it early",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(*dataDir, func(app *bootstrap.App) error {
				engine, err := app.NewEngine(settings)
				if err != nil {
					return err
				}
				defer engine.Close()
				progress := &runPrinter{out: cmd.OutOrStdout()}
				final, err := app.PracticeCLI.Run(ctx, engine, practiceinadapter.RunOptions{
					EndAfter: endAfter,
					OnUpdate: progress.update,
				})
				if err != nil {
					return err
				}
				printReward(cmd.OutOrStdout(), final)
				return nil
			})
		},
	}
	addSettingsFlags(run, &settings)
	run.Flags().DurationVar(&endAfter, "end-after", 0, "end the session early after this long")

	var emotion, categoryID, activity string
	var duration int
	match := &cobra.Command{
		Use:   "match --emotion <emotion> --duration <minutes>",
		Short: "Show which configuration and clip a session would use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(emotion) == "" {
				return fmt.Errorf("--emotion is required")
			}
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if activity == "" {
					activity = app.Config.Practice.ActivityType
				}
				if categoryID == "" {
					categoryID = app.Config.Practice.CategoryID
				}
				out, err := app.CatalogCLI.Match(context.Background(), activity, categoryID, emotion, duration)
				if err != nil {
					return err
				}
				printSelection(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	match.Flags().StringVar(&emotion, "emotion", "", "emotion to match")
	match.Flags().IntVar(&duration, "duration", 5, "desired duration in minutes (1-10)")
	match.Flags().StringVar(&activity, "activity", "", "activity type (defaults to practice.activity_type)")
	match.Flags().StringVar(&categoryID, "category", "", "category id")

	practice.AddCommand(run, match)
	return practice
}

type runPrinter struct {
	out       io.Writer
	started   bool
	lastShown int
	reported  map[string]bool
}

func (p *runPrinter) update(s practicedto.Snapshot) {
	if s.Status != "active" || s.Session == nil {
		return
	}
	session := s.Session
	if !p.started {
		p.started = true
		p.lastShown = session.RemainingSeconds
		_, _ = fmt.Fprintf(p.out, "started %s: %d min, %d karma available\n", session.Title, session.TargetMinutes, s.Selection.Configuration.KarmaPoints)
		if !session.Authenticated {
			_, _ = fmt.Fprintln(p.out, "not signed in: progress will not be saved")
		}
		return
	}
	for _, media := range session.Media {
		if media.Error != "" && !p.reported[media.Channel] {
			if p.reported == nil {
				p.reported = map[string]bool{}
			}
			p.reported[media.Channel] = true
			_, _ = fmt.Fprintf(p.out, "%s: %s\n", media.Channel, media.Error)
		}
	}
	if session.RemainingSeconds%60 == 0 && session.RemainingSeconds != p.lastShown && session.RemainingSeconds > 0 {
		p.lastShown = session.RemainingSeconds
		_, _ = fmt.Fprintf(p.out, "%d min remaining\n", session.RemainingSeconds/60)
	}
}

func printReward(out io.Writer, s practicedto.Snapshot) {
	if s.Reward == nil {
		return
	}
	r := s.Reward
	outcome := "ended early"
	if r.Natural {
		outcome = "complete"
	}
	_, _ = fmt.Fprintf(out, "session %s: %d of %d min, karma %d of %d\n", outcome, r.CompletedMinutes, r.TargetMinutes, r.KarmaAwarded, r.KarmaAvailable)
	if s.Persistence.Status != "" {
		line := s.Persistence.Status
		if s.Persistence.Message != "" {
			line += ": " + s.Persistence.Message
		}
		_, _ = fmt.Fprintf(out, "record %s\n", line)
	}
}

func printSelection(out io.Writer, s catalogdto.SelectionOutput) {
	switch {
	case s.CatalogUnavailable:
		_, _ = fmt.Fprintln(out, "catalog unavailable")
	case s.NoConfigurationForEmotion:
		_, _ = fmt.Fprintln(out, "no configuration for emotion")
	}
	for _, c := range s.Candidates {
		_, _ = fmt.Fprintf(out, "candidate\t%s\t%d min\t%d karma\t%s\n", c.ID, c.DurationMinutes, c.KarmaPoints, c.Title)
	}
	c := s.Configuration
	label := c.ID
	if c.Synthetic {
		label = "(default)"
	}
	_, _ = fmt.Fprintf(out, "configuration\t%s\t%d min\t%d karma\n", label, c.DurationMinutes, c.KarmaPoints)
	if s.Clip == nil {
		_, _ = fmt.Fprintln(out, "clip\tnone")
		return
	}
	_, _ = fmt.Fprintf(out, "clip\t%s\t%s\tvideo=%s\taudio=%s\t(%d available)\n", s.Clip.ID, s.Clip.Title, s.Clip.VideoURL, s.Clip.AudioURL, s.ClipCount)
}

func newCatalogCmd(dataDir *string) *cobra.Command {
	catalog := &cobra.Command{Use: "catalog", Short: "Content catalog queries"}

	var activity, categoryID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List configurations for an activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if activity == "" {
					activity = app.Config.Practice.ActivityType
				}
				configs, err := app.CatalogCLI.List(context.Background(), activity, categoryID)
				if err != nil {
					return err
				}
				if len(configs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no configurations")
					return nil
				}
				for _, c := range configs {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d karma\t%s\n", c.ID, c.Emotion, c.DurationLabel, c.KarmaPoints, c.Title)
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&activity, "activity", "", "activity type (defaults to practice.activity_type)")
	list.Flags().StringVar(&categoryID, "category", "", "category id")

	catalog.AddCommand(list)
	return catalog
}

func newHistoryCmd(dataDir *string) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Past sessions from the local journal"}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				entries, err := app.PracticeCLI.History(context.Background(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				for _, e := range entries {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d/%d min\t+%d karma\t%s\n",
						e.StartedAt.Local().Format("2006-01-02 15:04"), e.ActivityType, e.Emotion,
						e.ActualDurationMinutes, e.TargetDurationMinutes, e.KarmaPoints, e.Title)
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum sessions to show")

	reindex := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the history index from journal notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				out, err := app.PracticeCLI.Reindex(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d sessions\n", out.Indexed)
				return nil
			})
		},
	}

	history.AddCommand(list, reindex)
	return history
}

func newAuthCmd(dataDir *string) *cobra.Command {
	auth := &cobra.Command{Use: "auth", Short: "Credentials used to save progress"}

	var token string
	login := &cobra.Command{
		Use:   "login --token <token>",
		Short: "Store an access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("--token is required")
			}
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if err := app.Credentials.Save(context.Background(), token, time.Now()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed in")
				return nil
			})
		},
	}
	login.Flags().StringVar(&token, "token", "", "access token")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if err := app.Credentials.Clear(context.Background()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Report whether progress will be saved",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				if app.Credentials.Authenticated(context.Background()) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed in")
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				}
				return nil
			})
		},
	}

	auth.AddCommand(login, logout, status)
	return auth
}

func newPlayerCmd(dataDir *string) *cobra.Command {
	player := &cobra.Command{Use: "player", Short: "Media player plugin"}
	player.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check the configured player plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataDir, func(app *bootstrap.App) error {
				result, err := app.PracticeCLI.Doctor(context.Background())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "binary: %s (reachable=%t)\n", result.Binary, result.BinaryReachable)
				if result.ChecksumChecked {
					_, _ = fmt.Fprintf(out, "checksum valid: %t\n", result.ChecksumValid)
				}
				if result.HandshakeOK {
					_, _ = fmt.Fprintf(out, "player: %s %s channels=%s\n", result.PlayerName, result.PlayerVersion, strings.Join(result.Channels, ","))
				}
				if result.Error != "" {
					return errors.New(result.Error)
				}
				return nil
			})
		},
	})
	return player
}
