package control

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chosenoffset.com/avatarstage/internal/emotion"
	"chosenoffset.com/avatarstage/internal/metrics"
	"chosenoffset.com/avatarstage/internal/settings"
)

// Target is what drained commands are applied to. *avatar.Controller
// satisfies it.
type Target interface {
	SetEmotion(label string)
	SetSpeaking(on bool)
	LoadQuality(tier string)
	Resize(w, h int)
	SetDebug(on bool)
	Snapshot() settings.Snapshot
	ApplySettings(snap settings.Snapshot) error
}

// utterance is the speaking window opened by the latest speak command.
type utterance struct {
	seq      uint64
	deadline time.Time
}

// Dispatcher queues commands from any goroutine and applies them on the
// frame thread.
type Dispatcher struct {
	log zerolog.Logger

	mu    sync.Mutex
	queue []Command

	// Touched only from Drain.
	seq    uint64
	active *utterance
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{log: log.With().Str("component", "control").Logger()}
}

// Post validates and queues cmd.
func (d *Dispatcher) Post(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	metrics.Commands.WithLabelValues(string(cmd.Op)).Inc()

	d.mu.Lock()
	d.queue = append(d.queue, cmd)
	d.mu.Unlock()
	return nil
}

// Pending returns the number of queued commands.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Speaking reports whether an utterance window is open.
func (d *Dispatcher) Speaking() bool {
	return d.active != nil
}

// Drain applies queued commands to t in arrival order, then closes the
// utterance window if now has passed its deadline. It returns the number of
// commands applied. Call it from the frame thread only.
func (d *Dispatcher) Drain(t Target, now time.Time) int {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, cmd := range batch {
		d.apply(t, cmd, now)
	}

	if d.active != nil && !now.Before(d.active.deadline) {
		d.log.Debug().Uint64("seq", d.active.seq).Msg("utterance finished")
		d.active = nil
		t.SetSpeaking(false)
		t.SetEmotion(emotion.Normal.String())
	}
	return len(batch)
}

func (d *Dispatcher) apply(t Target, cmd Command, now time.Time) {
	switch cmd.Op {
	case OpEmotion:
		t.SetEmotion(cmd.Emotion)
	case OpSpeaking:
		if !cmd.Speaking {
			d.active = nil
		}
		t.SetSpeaking(cmd.Speaking)
	case OpSpeak:
		d.seq++
		dur := UtteranceDuration(cmd.Text)
		d.active = &utterance{seq: d.seq, deadline: now.Add(dur)}
		t.SetSpeaking(true)
		if cmd.Emotion != "" {
			t.SetEmotion(cmd.Emotion)
		}
		d.log.Debug().Uint64("seq", d.seq).Dur("duration", dur).Msg("utterance started")
	case OpQuality:
		t.LoadQuality(cmd.Tier)
	case OpBackend:
		snap := t.Snapshot()
		snap.Type = cmd.Type
		if err := t.ApplySettings(snap); err != nil {
			d.log.Error().Err(err).Str("type", cmd.Type).Msg("backend switch failed")
		}
	case OpResize:
		t.Resize(cmd.Width, cmd.Height)
	case OpDebug:
		t.SetDebug(cmd.Debug)
	}
}
