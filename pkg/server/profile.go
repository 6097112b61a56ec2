package server

import (
	"github.com/pgaval/mrcp-server/pkg/mpf"
	"github.com/pgaval/mrcp-server/pkg/mrcp"
)

// TerminationFactory is the profile's RTP-termination factory: it
// allocates ports and builds the termination/local-descriptor pair
// the orchestrator stamps into an answer, synchronously, never
// blocking on the media engine.
type TerminationFactory interface {
	CreateTermination(remote *mpf.CodecDescriptor, mode mpf.StreamMode) (*mpf.Termination, *mrcp.AudioMediaDescriptor, error)
	Release(t *mpf.Termination)
}

// defaultContextCapacity is the orchestrator's default upper bound on
// terminations per session.
const defaultContextCapacity = 5

// Profile is the read-only configuration value attached at session
// creation, built via functional options.
type Profile struct {
	Name               string
	resources          map[string]mrcp.ResourceEngine
	ConnectionAgent    mrcp.ConnectionAgent
	MediaFactory       *mpf.Factory
	MediaEngine        *mpf.Engine
	TerminationFactory TerminationFactory
	ContextCapacity    int
	Logger             Logger
	Metrics            *Metrics
}

type ProfileOption func(*Profile)

func WithResource(name string, engine mrcp.ResourceEngine) ProfileOption {
	return func(p *Profile) { p.resources[name] = engine }
}

func WithConnectionAgent(agent mrcp.ConnectionAgent) ProfileOption {
	return func(p *Profile) { p.ConnectionAgent = agent }
}

func WithTerminationFactory(f TerminationFactory) ProfileOption {
	return func(p *Profile) { p.TerminationFactory = f }
}

func WithContextCapacity(n int) ProfileOption {
	return func(p *Profile) { p.ContextCapacity = n }
}

func WithLogger(l Logger) ProfileOption {
	return func(p *Profile) { p.Logger = l }
}

func WithMetrics(m *Metrics) ProfileOption {
	return func(p *Profile) { p.Metrics = m }
}

// NewProfile builds a Profile driving mediaEngine/mediaFactory, with
// sane defaults (context capacity 5, a no-op logger, nil metrics)
// overridden by opts.
func NewProfile(name string, mediaFactory *mpf.Factory, mediaEngine *mpf.Engine, opts ...ProfileOption) *Profile {
	p := &Profile{
		Name:            name,
		resources:       make(map[string]mrcp.ResourceEngine),
		MediaFactory:    mediaFactory,
		MediaEngine:     mediaEngine,
		ContextCapacity: defaultContextCapacity,
		Logger:          NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resource looks a resource name up in the resource factory.
func (p *Profile) Resource(name string) (mrcp.ResourceEngine, bool) {
	engine, ok := p.resources[name]
	return engine, ok
}
