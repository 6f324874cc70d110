package builder

import (
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/fsutil"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/pyflow"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/registry"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/rules"
)

// Option configures a Builder.
type Option func(*Builder)

// WithStrategies replaces the rule-file matching strategies.
func WithStrategies(strategies ...Strategy) Option {
	return func(b *Builder) {
		b.strategies = strategies
	}
}

// WithAutoLinks replaces the auto-link rules. Calling it without rules turns
// auto-linking off.
func WithAutoLinks(rules ...AutoLinkRule) Option {
	return func(b *Builder) {
		b.autoLinks = rules
	}
}

// WithScheme selects the color scheme used to enrich tasks.
func WithScheme(scheme string) Option {
	return func(b *Builder) {
		if scheme != "" {
			b.scheme = scheme
		}
	}
}

// WithUnknownTags sets the policy for custom tags in rule files.
func WithUnknownTags(fn rules.UnknownTagFunc) Option {
	return func(b *Builder) {
		b.unknownTags = fn
	}
}

// Builder turns one object directory into a FlowGraph.
type Builder struct {
	src    Sources
	srcErr error
	path   string
	reg    pyflow.Registry

	strategies  []Strategy
	autoLinks   []AutoLinkRule
	scheme      string
	unknownTags rules.UnknownTagFunc
}

// New creates a builder reading the object behind src.
func New(src Sources, reg pyflow.Registry, opts ...Option) *Builder {
	b := &Builder{
		src:        src,
		reg:        reg,
		strategies: DefaultStrategies(),
		autoLinks:  DefaultTerminalChain(),
		scheme:     registry.DefaultScheme,
	}
	if src != nil {
		b.path = src.Root()
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ForObject creates a builder for the object directory at path. An unusable
// path is reported by Build rather than here.
func ForObject(path string, reg pyflow.Registry, opts ...Option) *Builder {
	l, err := fsutil.NewLocator(path)
	if err != nil {
		b := New(nil, reg, opts...)
		b.srcErr = err
		b.path = path
		return b
	}
	return New(l, reg, opts...)
}
