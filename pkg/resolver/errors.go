package resolver

import "fmt"

// Unresolvable is returned when no assignment of module versions satisfies
// every constraint (spec §4.1 Contract). It wraps the failure of the last
// candidate tried for the query, which may itself be an Unresolvable for
// a deeper choice.
type Unresolvable struct {
	Query  string
	Reason error
}

func (e *Unresolvable) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("no module satisfies %s", e.Query)
	}
	return fmt.Sprintf("no module satisfies %s: %v", e.Query, e.Reason)
}

func (e *Unresolvable) Unwrap() error { return e.Reason }

// PermitsViolation is the reason recorded when a candidate's view rejects
// the requester under the §4.1 Permits rule.
type PermitsViolation struct {
	Requester string
	ViewID    string
}

func (e *PermitsViolation) Error() string {
	return fmt.Sprintf("%s does not permit %s to depend on it", e.ViewID, requesterLabel(e.Requester))
}

func requesterLabel(name string) string {
	if name == "" {
		return "<root>"
	}
	return name
}

// MissingService is returned by the post-check (spec §4.1 Post-check) when
// a non-OPTIONAL service-dependence has no resolved provider.
type MissingService struct {
	Interface string
	Requester string
}

func (e *MissingService) Error() string {
	return fmt.Sprintf("no resolved module provides service %s required by %s", e.Interface, requesterLabel(e.Requester))
}
