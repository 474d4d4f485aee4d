package moduleid

import "github.com/blang/semver/v4"

// Query is a ModuleIdQuery (spec §3): a module name plus an optional
// version range constraint. A Query with no Range matches any version of
// the named module.
type Query struct {
	Name  string
	Range semver.Range
}

// NewQuery returns a Query for name with no version constraint.
func NewQuery(name string) Query {
	return Query{Name: name}
}

// NewRangeQuery returns a Query for name constrained to versions admitted
// by rangeExpr (a semver.ParseRange expression, e.g. ">=1.0.0 <2.0.0").
func NewRangeQuery(name, rangeExpr string) (Query, error) {
	r, err := semver.ParseRange(rangeExpr)
	if err != nil {
		return Query{}, err
	}
	return Query{Name: name, Range: r}, nil
}

// Matches reports whether id satisfies the query: names must be equal, and
// if the query carries a Range, id's Version must be non-nil and admitted
// by it.
func (q Query) Matches(id ID) bool {
	if q.Name != id.Name {
		return false
	}
	if q.Range == nil {
		return true
	}
	if id.Version == nil {
		return false
	}
	return q.Range(*id.Version)
}

func (q Query) String() string {
	return q.Name
}
