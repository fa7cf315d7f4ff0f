// Command avatarstage runs the expressive avatar in a window, renders
// headless snapshots and manages its settings and asset catalog.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chosenoffset.com/avatarstage/internal/asset"
	"chosenoffset.com/avatarstage/internal/avatar"
	"chosenoffset.com/avatarstage/internal/diag"
	"chosenoffset.com/avatarstage/internal/logging"
	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/settings"
)

var (
	version = "dev"

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config   string
	assets   string
	logLevel string
	logDir   string
	jsonLogs bool
	diagURL  string
}

// app is what a subcommand needs after flag parsing.
type app struct {
	log    zerolog.Logger
	closer io.Closer
	snap   settings.Snapshot
	sink   diag.Sink
	http   *diag.HTTPSink
	flags  *globalFlags
}

func newApp(f *globalFlags) (*app, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.Level(f.logLevel)
	cfg.Console = !f.jsonLogs
	cfg.LogDir = f.logDir
	log, closer, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}

	snap, err := settings.Load(f.config)
	if err != nil {
		log.Warn().Err(err).Str("path", f.config).Msg("settings unreadable, using defaults")
	}

	a := &app{log: log, closer: closer, snap: snap, flags: f}
	sinks := diag.Multi{diag.NewLogSink(log)}
	if f.diagURL != "" {
		a.http = diag.NewHTTPSink(f.diagURL, nil, log)
		sinks = append(sinks, a.http)
	}
	a.sink = sinks
	return a, nil
}

func (a *app) deps(r render.Renderer) avatar.Deps {
	return avatar.Deps{
		Renderer: r,
		Log:      a.log,
		Sink:     a.sink,
		AssetDir: a.flags.assets,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *app) close() {
	if a.http != nil {
		a.http.Close()
	}
	_ = a.closer.Close()
}

func main() {
	f := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "avatarstage",
		Short: "Expressive avatar stage",
		Long: titleStyle.Render("Avatarstage") + `

An emotionally expressive avatar driven by emotion labels, speaking state
and quality tiers, rendered as a procedural 2D face or a 3D model.

` + dimStyle.Render("Use 'avatarstage [command] --help' for more information."),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", settings.DefaultFile, "settings file")
	pf.StringVar(&f.assets, "assets", asset.DefaultDir, "directory holding model_<tier> files")
	pf.StringVar(&f.logLevel, "log-level", string(logging.LevelInfo), "log level (debug, info, warn, error)")
	pf.StringVar(&f.logDir, "log-dir", "", "also write logs to a dated file in this directory")
	pf.BoolVar(&f.jsonLogs, "json-logs", false, "emit JSON logs instead of console output")
	pf.StringVar(&f.diagURL, "diag-url", "", "post diagnostics to this system-log endpoint")

	run := newRunCmd(f)
	rootCmd.AddCommand(run, newSnapshotCmd(f), newCatalogCmd(f), newInitSettingsCmd(f))
	rootCmd.RunE = run.RunE
	rootCmd.Flags().AddFlagSet(run.Flags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
