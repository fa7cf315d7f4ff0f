package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chosenoffset.com/avatarstage/internal/asset"
	"chosenoffset.com/avatarstage/internal/avatar"
	"chosenoffset.com/avatarstage/internal/control"
	"chosenoffset.com/avatarstage/internal/host"
	ebitenrender "chosenoffset.com/avatarstage/internal/render/ebiten"
	"chosenoffset.com/avatarstage/internal/render/raster"
	"chosenoffset.com/avatarstage/internal/settings"
)

func newRunCmd(f *globalFlags) *cobra.Command {
	var (
		addr      string
		width     int
		height    int
		noMesh    bool
		noControl bool
		noWatch   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the avatar window",
		Long:  "Open the avatar window with the control server and the settings watcher running alongside.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(f)
			if err != nil {
				return err
			}
			defer a.close()

			var opts []ebitenrender.Option
			if noMesh {
				opts = append(opts, ebitenrender.WithoutMesh())
			}
			renderer := ebitenrender.NewRenderer(opts...)

			win := host.NewWindow(width, height)
			ctrl, err := avatar.New(win, a.snap, a.deps(renderer))
			if err != nil {
				return fmt.Errorf("failed to create avatar: %w", err)
			}
			defer ctrl.Destroy()

			disp := control.NewDispatcher(a.log)
			stage := host.NewStage(win, ctrl,
				host.WithInput(ebitenrender.NewInputManager()),
				host.WithDispatcher(disp),
				host.WithLogger(a.log),
			)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			if !noControl {
				srv := control.NewServer(addr, disp, a.log)
				g.Go(func() error { return srv.Run(gctx) })
			}
			if !noWatch {
				g.Go(func() error {
					return settings.Watch(gctx, f.config, a.log, stage.PostSettings)
				})
			}

			engine := ebitenrender.NewEngine()
			engine.SetWindowSize(width, height)
			engine.SetWindowTitle("Avatarstage")
			engine.SetWindowResizable(true)

			a.log.Info().Str("backend", ctrl.Kind()).Msg("starting avatar stage")
			runErr := engine.RunGame(stage)

			cancel()
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error().Err(err).Msg("background task failed")
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", control.DefaultAddr, "control server listen address")
	cmd.Flags().IntVar(&width, "width", 800, "window width")
	cmd.Flags().IntVar(&height, "height", 600, "window height")
	cmd.Flags().BoolVar(&noMesh, "no-mesh", false, "disable 3D, forcing the 2D face")
	cmd.Flags().BoolVar(&noControl, "no-control", false, "do not start the control server")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the settings file on change")
	return cmd
}

func newSnapshotCmd(f *globalFlags) *cobra.Command {
	var (
		out      string
		frames   int
		width    int
		height   int
		kind     string
		quality  string
		emotion  string
		speaking bool
		settle   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render frames headlessly and save the last one as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(f)
			if err != nil {
				return err
			}
			defer a.close()

			snap := a.snap
			if kind != "" {
				snap.Type = kind
			}
			if quality != "" {
				snap.Quality = quality
			}

			renderer := raster.NewRenderer()
			win := host.NewWindow(width, height)
			ctrl, err := avatar.New(win, snap, a.deps(renderer))
			if err != nil {
				return fmt.Errorf("failed to create avatar: %w", err)
			}
			defer ctrl.Destroy()

			ctrl.SetEmotion(emotion)
			ctrl.SetSpeaking(speaking)

			// Let the asynchronous model load land before counting frames.
			if settle > 0 {
				time.Sleep(settle)
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			engine := raster.NewEngine(ctx, renderer, 600, frames)
			engine.SetWindowSize(width, height)
			if err := engine.RunGame(host.NewStage(win, ctrl, host.WithLogger(a.log))); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}

			screen := engine.Screen()
			if screen == nil {
				return errors.New("no frame rendered")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer file.Close()
			if err := screen.EncodePNG(file); err != nil {
				return fmt.Errorf("failed to encode PNG: %w", err)
			}

			fmt.Println(successStyle.Render("✓ Snapshot written"))
			fmt.Printf("  File:    %s\n", out)
			fmt.Printf("  Backend: %s\n", ctrl.Kind())
			fmt.Printf("  Frames:  %d\n", frames)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "avatar.png", "output PNG file")
	cmd.Flags().IntVarP(&frames, "frames", "n", 30, "frames to run before capturing")
	cmd.Flags().IntVar(&width, "width", 400, "image width")
	cmd.Flags().IntVar(&height, "height", 400, "image height")
	cmd.Flags().StringVar(&kind, "type", "", "backend override (2d or 3d)")
	cmd.Flags().StringVar(&quality, "quality", "", "quality tier override")
	cmd.Flags().StringVar(&emotion, "emotion", "normal", "emotion label")
	cmd.Flags().BoolVar(&speaking, "speaking", false, "capture while speaking")
	cmd.Flags().DurationVar(&settle, "settle", 200*time.Millisecond, "wait for the model load before rendering")
	return cmd
}

func newCatalogCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the model files available per quality tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := asset.Scan(f.assets)
			if err != nil {
				return err
			}

			cell := lipgloss.NewStyle().Padding(0, 1)
			header := cell.Bold(true).Foreground(lipgloss.Color("#3B82F6"))
			missing := dimStyle.Render("-")

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(dimStyle).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return header
					}
					return cell
				}).
				Headers("TIER", "RICH", "STATIC", "STAGE")

			for _, e := range entries {
				rich, static := missing, missing
				stage := string(asset.FormatPrimitive)
				if e.Static != "" {
					static = filepath.Base(e.Static)
					stage = string(asset.FormatStatic)
				}
				if e.Rich != "" {
					rich = filepath.Base(e.Rich)
					stage = string(asset.FormatRich)
				}
				t.Row(strings.ToUpper(string(e.Tier)), rich, static, stage)
			}

			fmt.Println(titleStyle.Render("Asset catalog") + " " + dimStyle.Render(f.assets))
			fmt.Println(t.Render())
			return nil
		},
	}
}

func newInitSettingsCmd(f *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-settings",
		Short: "Write the default settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(f.config); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", f.config)
			}
			if err := settings.Save(f.config, settings.Default()); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ Settings written to " + f.config))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
