// Package resolver implements phase 1 of the Configurator pipeline (spec
// §4.1): depth-first version resolution over a Catalog, followed by
// service-provider discovery. Its output, a Resolution, feeds the
// ContextBuilder (pkg/linking).
package resolver

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/modsys/core/pkg/catalog"
	"github.com/modsys/core/pkg/moduleid"
)

// Resolver resolves root queries against a catalog/library. Construct one
// with New, the way the teacher's solver.New builds a Solver from Options.
type Resolver struct {
	lib    catalog.Library
	tracer Tracer
	log    logrus.FieldLogger
}

// Option configures a Resolver at construction time.
type Option func(r *Resolver) error

// WithLibrary sets the catalog/library the Resolver searches. Required —
// New returns an error if it is never supplied.
func WithLibrary(lib catalog.Library) Option {
	return func(r *Resolver) error {
		r.lib = lib
		return nil
	}
}

// WithTracer attaches an observer of the backtracking search.
func WithTracer(t Tracer) Option {
	return func(r *Resolver) error {
		r.tracer = t
		return nil
	}
}

// WithLogger sets the logger used for the service-discovery warnings
// described in spec §9's first Open Question.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Resolver) error {
		r.log = log
		return nil
	}
}

var defaults = []Option{
	func(r *Resolver) error {
		if r.tracer == nil {
			r.tracer = NoopTracer{}
		}
		return nil
	},
	func(r *Resolver) error {
		if r.log == nil {
			r.log = logrus.StandardLogger()
		}
		return nil
	},
}

// New builds a Resolver from options, applying defaults for anything the
// caller left unset.
func New(options ...Option) (*Resolver, error) {
	var r Resolver
	for _, opt := range append(append([]Option{}, options...), defaults...) {
		if err := opt(&r); err != nil {
			return nil, err
		}
	}
	if r.lib == nil {
		return nil, errNoLibrary
	}
	return &r, nil
}

var errNoLibrary = errors.New("resolver.New requires WithLibrary")

// Resolve runs the phase-1 algorithm against roots, one root choice per
// query (spec §4.1 Algorithm: "seeded with one root choice per root
// query"), then drains the service-discovery FIFO and runs the
// post-check.
func (r *Resolver) Resolve(roots []moduleid.Query) (*Resolution, error) {
	s := newSearch(r)

	stack := make([]Choice, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, rootChoice(roots[i]))
	}

	if err := s.resolveStack(stack); err != nil {
		return nil, err
	}

	s.runServicePhases()

	if err := s.postCheck(); err != nil {
		return nil, err
	}

	return s.res, nil
}
