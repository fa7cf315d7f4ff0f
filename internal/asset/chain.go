package asset

import (
	"fmt"

	"github.com/rs/zerolog"

	"chosenoffset.com/avatarstage/internal/diag"
	"chosenoffset.com/avatarstage/internal/metrics"
	"chosenoffset.com/avatarstage/internal/placeholders"
	"chosenoffset.com/avatarstage/internal/scene"
)

// Diagnostic messages, one per failed stage.
const (
	MsgRichFailed   = "rich format load failed"
	MsgStaticFailed = "static format load failed"
)

// Chain loads a tier by trying the rich format, then the static format, then
// the built-in primitive. Load never fails.
type Chain struct {
	catalog   Catalog
	rich      Loader
	static    Loader
	primitive func() *scene.Node
	sink      diag.Sink
	log       zerolog.Logger
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithRichLoader replaces the glTF loader
func WithRichLoader(l Loader) ChainOption {
	return func(c *Chain) { c.rich = l }
}

// WithStaticLoader replaces the OBJ loader
func WithStaticLoader(l Loader) ChainOption {
	return func(c *Chain) { c.static = l }
}

// WithPrimitive replaces the primitive builder
func WithPrimitive(build func() *scene.Node) ChainOption {
	return func(c *Chain) { c.primitive = build }
}

// NewChain returns a chain over cat reporting failures to sink
func NewChain(cat Catalog, sink diag.Sink, log zerolog.Logger, opts ...ChainOption) *Chain {
	if sink == nil {
		sink = diag.Nop{}
	}
	c := &Chain{
		catalog: cat,
		rich:    LoadGLTF,
		static:  LoadOBJ,
		primitive: func() *scene.Node {
			return placeholders.Avatar(placeholders.DefaultDetail)
		},
		sink: sink,
		log:  log.With().Str("component", "asset").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load resolves tier to a model. It is safe to call from any goroutine as
// long as the loaders are.
func (c *Chain) Load(tier Tier) *Model {
	tier = ParseTier(string(tier))

	if m := c.try(FormatRich, c.catalog.Rich(tier), c.rich, MsgRichFailed); m != nil {
		return m
	}
	if m := c.try(FormatStatic, c.catalog.Static(tier), c.static, MsgStaticFailed); m != nil {
		return m
	}

	c.log.Warn().Str("tier", string(tier)).Msg("All model loading failed, using primitive avatar")
	metrics.Loads.WithLabelValues(string(FormatPrimitive), "ok").Inc()
	return &Model{Root: c.primitive(), Format: FormatPrimitive}
}

func (c *Chain) try(format Format, path string, load Loader, msg string) *Model {
	if load == nil {
		return nil
	}
	m, err := load(path)
	if err == nil && (m == nil || m.Root == nil) {
		err = fmt.Errorf("loader returned no model")
	}
	if err != nil {
		metrics.Loads.WithLabelValues(string(format), "failed").Inc()
		c.sink.Append(msg, fmt.Sprintf("%s: %v", path, err))
		c.log.Debug().Err(err).Str("path", path).Msgf("%s load failed", format)
		return nil
	}

	m.Format = format
	if m.Path == "" {
		m.Path = path
	}
	metrics.Loads.WithLabelValues(string(format), "ok").Inc()
	c.log.Info().Str("path", path).Int("triangles", m.Root.Triangles()).Msgf("%s model loaded", format)
	return m
}
