// Package control carries avatar commands from outside the frame loop into
// it: a JSON command vocabulary, a dispatcher that queues commands until the
// frame thread drains them, and a websocket server that feeds the queue.
package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Op names a command.
type Op string

const (
	OpEmotion  Op = "emotion"  // set the emotion label
	OpSpeaking Op = "speaking" // speaking on or off
	OpSpeak    Op = "speak"    // speak an utterance for a text-derived duration
	OpQuality  Op = "quality"  // load a quality tier
	OpBackend  Op = "backend"  // switch between 2d and 3d
	OpResize   Op = "resize"   // resize to width x height, or to the container
	OpDebug    Op = "debug"    // toggle the state overlay
)

var (
	// ErrUnknownOp is returned for commands whose op is not recognised.
	ErrUnknownOp = errors.New("control: unknown op")

	// ErrInvalidCommand is returned for commands missing a required field.
	ErrInvalidCommand = errors.New("control: invalid command")
)

// Command is one control message.
type Command struct {
	Op       Op     `json:"op"`
	Emotion  string `json:"emotion,omitempty"`
	Speaking bool   `json:"speaking,omitempty"`
	Text     string `json:"text,omitempty"`
	Tier     string `json:"tier,omitempty"`
	Type     string `json:"type,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Debug    bool   `json:"debug,omitempty"`
}

// Validate checks that the op is known and its fields are usable.
func (c Command) Validate() error {
	switch c.Op {
	case OpEmotion, OpSpeaking, OpQuality, OpDebug:
		return nil
	case OpSpeak:
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("%w: speak needs text", ErrInvalidCommand)
		}
	case OpBackend:
		if c.Type == "" {
			return fmt.Errorf("%w: backend needs type", ErrInvalidCommand)
		}
	case OpResize:
		if c.Width < 0 || c.Height < 0 {
			return fmt.Errorf("%w: negative size", ErrInvalidCommand)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, c.Op)
	}
	return nil
}

// Decode parses and validates one JSON command.
func Decode(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	c.Op = Op(strings.ToLower(strings.TrimSpace(string(c.Op))))
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

// Utterance timing: words are assumed spoken at 150 per minute and the
// speaking window is clamped to [1s, 15s].
const (
	WordsPerMinute = 150
	MinUtterance   = time.Second
	MaxUtterance   = 15 * time.Second
)

// UtteranceDuration returns how long text keeps the avatar speaking.
func UtteranceDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(math.Round(float64(words) / WordsPerMinute * float64(time.Minute)))
	return min(max(d, MinUtterance), MaxUtterance)
}
