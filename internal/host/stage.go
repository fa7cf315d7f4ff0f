package host

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chosenoffset.com/avatarstage/internal/asset"
	"chosenoffset.com/avatarstage/internal/avatar"
	"chosenoffset.com/avatarstage/internal/control"
	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/render"
	"chosenoffset.com/avatarstage/internal/settings"
)

// emotionKeys maps the number row to emotions in declaration order.
var emotionKeys = []render.Key{render.Key1, render.Key2, render.Key3, render.Key4, render.Key5, render.Key6}

// Stage is the render.Game driving one avatar controller.
type Stage struct {
	win   *Window
	ctrl  *avatar.Controller
	input render.InputManager
	disp  *control.Dispatcher
	now   func() time.Time
	log   zerolog.Logger

	mu       sync.Mutex
	incoming *settings.Snapshot
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithInput enables the keyboard shortcuts.
func WithInput(in render.InputManager) StageOption {
	return func(s *Stage) { s.input = in }
}

// WithDispatcher drains control commands each tick.
func WithDispatcher(d *control.Dispatcher) StageOption {
	return func(s *Stage) { s.disp = d }
}

// WithNow sets the clock used for utterance deadlines.
func WithNow(now func() time.Time) StageOption {
	return func(s *Stage) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) StageOption {
	return func(s *Stage) { s.log = log.With().Str("component", "stage").Logger() }
}

// NewStage wires ctrl, whose backends are mounted on win, into a game.
func NewStage(win *Window, ctrl *avatar.Controller, opts ...StageOption) *Stage {
	s := &Stage{win: win, ctrl: ctrl, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PostSettings queues a snapshot for the next tick. Only the latest queued
// snapshot is applied. Safe for concurrent use.
func (s *Stage) PostSettings(snap settings.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incoming = &snap
}

// Update implements render.Game.
func (s *Stage) Update() error {
	if s.ctrl.Destroyed() {
		return render.ErrTerminated
	}
	if s.input != nil && s.input.IsKeyJustPressed(render.KeyEscape) {
		s.log.Info().Msg("quit requested")
		return render.ErrTerminated
	}

	s.mu.Lock()
	snap := s.incoming
	s.incoming = nil
	s.mu.Unlock()
	if snap != nil {
		if err := s.ctrl.ApplySettings(*snap); err != nil {
			s.log.Error().Err(err).Msg("failed to apply settings")
		}
	}

	if s.disp != nil {
		s.disp.Drain(s.ctrl, s.now())
	}
	if s.input != nil {
		s.handleKeys()
	}
	return nil
}

func (s *Stage) handleKeys() {
	all := emotion.All()
	for i, k := range emotionKeys {
		if s.input.IsKeyJustPressed(k) {
			s.ctrl.SetEmotion(all[i].String())
		}
	}
	if s.input.IsKeyJustPressed(render.KeySpace) {
		s.ctrl.SetSpeaking(!s.ctrl.Speaking())
	}
	if s.input.IsKeyJustPressed(render.KeyT) {
		snap := s.ctrl.Snapshot()
		if snap.Type == settings.Type3D {
			snap.Type = settings.Type2D
		} else {
			snap.Type = settings.Type3D
		}
		if err := s.ctrl.ApplySettings(snap); err != nil {
			s.log.Error().Err(err).Msg("backend toggle failed")
		}
	}
	if s.input.IsKeyJustPressed(render.KeyQ) {
		s.ctrl.LoadQuality(string(nextTier(asset.ParseTier(s.ctrl.Snapshot().Quality))))
	}
	if s.input.IsKeyJustPressed(render.KeyD) {
		s.ctrl.SetDebug(!s.ctrl.Debug())
	}
}

func nextTier(t asset.Tier) asset.Tier {
	tiers := asset.Tiers()
	i := slices.Index(tiers, t)
	return tiers[(i+1)%len(tiers)]
}

// Draw implements render.Game.
func (s *Stage) Draw(screen render.Image) {
	if !s.ctrl.Frame() {
		return
	}
	s.win.Composite(screen)
}

// Layout implements render.Game. The logical screen follows the window.
func (s *Stage) Layout(outsideWidth, outsideHeight int) (int, int) {
	if s.win.SetBounds(outsideWidth, outsideHeight) {
		s.ctrl.Resize(0, 0)
	}
	return outsideWidth, outsideHeight
}
