package resolver

import "github.com/sirupsen/logrus"

// ChoiceKind distinguishes an application-declared dependence from one the
// resolver itself synthesized during service-provider discovery (spec §4.1
// Services).
type ChoiceKind int

const (
	ApplicationChoice ChoiceKind = iota
	ServiceProviderChoice
)

func (k ChoiceKind) String() string {
	if k == ServiceProviderChoice {
		return "service-provider"
	}
	return "application"
}

// Tracer observes the backtracking search as it proceeds, mirroring the
// role the teacher's solver.Tracer plays for the SAT search: a no-op by
// default, swappable for one that logs or records a trail.
type Tracer interface {
	// OnAttempt is called before a Choice is tried against a candidate.
	OnAttempt(choice Choice, candidate string)
	// OnBacktrack is called when a candidate fails and the search is about
	// to try the next one (or give up).
	OnBacktrack(choice Choice, candidate string, reason error)
}

// NoopTracer discards every event, the resolver's default.
type NoopTracer struct{}

func (NoopTracer) OnAttempt(Choice, string)          {}
func (NoopTracer) OnBacktrack(Choice, string, error) {}

// LoggingTracer reports each attempt and backtrack at debug level through a
// logrus.FieldLogger, the way the rest of this module threads loggers.
type LoggingTracer struct {
	Log logrus.FieldLogger
}

func (t LoggingTracer) OnAttempt(choice Choice, candidate string) {
	t.Log.WithFields(logrus.Fields{
		"requester": requesterLabel(choice.Requester),
		"query":     choice.Query.String(),
		"candidate": candidate,
		"kind":      choice.Kind.String(),
	}).Debug("resolver: attempting candidate")
}

func (t LoggingTracer) OnBacktrack(choice Choice, candidate string, reason error) {
	t.Log.WithFields(logrus.Fields{
		"requester": requesterLabel(choice.Requester),
		"query":     choice.Query.String(),
		"candidate": candidate,
		"kind":      choice.Kind.String(),
	}).WithError(reason).Debug("resolver: backtracking")
}
