package catalog

import (
	"bytes"
	"fmt"

	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
)

// Predicate is a composable filter over a candidate module id, the same
// role cache/predicates.go's Predicate plays over a catalog Entry:
// composed via And/Or/Not rather than bespoke boolean expressions
// scattered through callers. Used to filter the ids FindModuleIds
// returns before the costlier ReadModuleInfo call.
type Predicate interface {
	Test(id moduleid.ID) bool
	String() string
}

type nameEqual string

// NameEqual matches ids whose name is exactly name.
func NameEqual(name string) Predicate { return nameEqual(name) }

func (n nameEqual) Test(id moduleid.ID) bool { return id.Name == string(n) }
func (n nameEqual) String() string           { return fmt.Sprintf("name = %s", string(n)) }

type versionSatisfies struct {
	q moduleid.Query
}

// VersionSatisfies matches ids whose version is accepted by q.
func VersionSatisfies(q moduleid.Query) Predicate { return versionSatisfies{q: q} }

func (v versionSatisfies) Test(id moduleid.ID) bool { return v.q.Matches(id) }
func (v versionSatisfies) String() string           { return fmt.Sprintf("version satisfies %s", v.q.String()) }

type andPredicate struct{ preds []Predicate }

// And matches an id that every one of preds matches.
func And(preds ...Predicate) Predicate { return andPredicate{preds: preds} }

func (p andPredicate) Test(id moduleid.ID) bool {
	for _, pred := range p.preds {
		if !pred.Test(id) {
			return false
		}
	}
	return true
}

func (p andPredicate) String() string { return joinPredicates(p.preds, " and ") }

type orPredicate struct{ preds []Predicate }

// Or matches an id that at least one of preds matches.
func Or(preds ...Predicate) Predicate { return orPredicate{preds: preds} }

func (p orPredicate) Test(id moduleid.ID) bool {
	for _, pred := range p.preds {
		if pred.Test(id) {
			return true
		}
	}
	return false
}

func (p orPredicate) String() string { return joinPredicates(p.preds, " or ") }

type notPredicate struct{ pred Predicate }

// Not matches an id that pred does not.
func Not(pred Predicate) Predicate { return notPredicate{pred: pred} }

func (p notPredicate) Test(id moduleid.ID) bool { return !p.pred.Test(id) }
func (p notPredicate) String() string           { return "not " + p.pred.String() }

type booleanPredicate bool

// True matches every id.
func True() Predicate { return booleanPredicate(true) }

// False matches no id.
func False() Predicate { return booleanPredicate(false) }

func (b booleanPredicate) Test(moduleid.ID) bool { return bool(b) }
func (b booleanPredicate) String() string {
	if b {
		return "true"
	}
	return "false"
}

func joinPredicates(preds []Predicate, sep string) string {
	var b bytes.Buffer
	for i, pred := range preds {
		b.WriteString(pred.String())
		if i != len(preds)-1 {
			b.WriteString(sep)
		}
	}
	return b.String()
}

// ServicePredicate is Predicate's counterpart over a resolved module
// descriptor, for the filtering spec §4.1 Services performs once a
// candidate's ModuleInfo has actually been read — a provider lookup
// can't be expressed against a bare id, since "does this module provide
// interface X" depends on its views.
type ServicePredicate interface {
	Test(info *moduleinfo.Info) bool
	String() string
}

type providesInterface string

// ProvidesInterface matches a module that provides at least one
// implementation of iface from any of its views.
func ProvidesInterface(iface string) ServicePredicate { return providesInterface(iface) }

func (p providesInterface) Test(info *moduleinfo.Info) bool {
	for _, v := range info.Views() {
		for _, provided := range v.ProvidedInterfaces() {
			if provided == string(p) {
				return true
			}
		}
	}
	return false
}

func (p providesInterface) String() string { return fmt.Sprintf("provides interface: %s", string(p)) }
