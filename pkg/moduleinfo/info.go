// Package moduleinfo models the parsed module descriptor (spec §3
// ModuleInfo): a module's primary id, its views, and the dependences it
// declares on other modules and on services.
package moduleinfo

import (
	"fmt"

	"github.com/modsys/core/pkg/moduleid"
)

// ViewDependence is one entry of ModuleInfo's ordered view-dependence list
// (spec §3): a set of Modifiers plus the query identifying the required
// view's owning module.
type ViewDependence struct {
	Modifiers ModifierSet
	Query     moduleid.Query
}

// ServiceDependence is one entry of ModuleInfo's service-dependence set
// (spec §3): a set of Modifiers plus the required service-interface name.
type ServiceDependence struct {
	Modifiers ModifierSet
	Interface string
}

// View is a named facet of a module (spec GLOSSARY "View"): it carries its
// own id, alias set, exported services, and a Permits whitelist.
type View struct {
	ID      moduleid.ID
	Aliases map[string]struct{}
	// provides maps an exported service interface name to the
	// insertion-ordered list of implementation class names this view
	// provides for it (spec §5: "Service-impl sets preserve insertion
	// order").
	provides map[string][]string
	// Permits is the set of module names allowed to require this view.
	// An empty set means "unrestricted unless a LOCAL dependence" (§4.1
	// Permits).
	Permits map[string]struct{}
}

// NewView returns a View for id with empty alias/provides/permits sets.
func NewView(id moduleid.ID) *View {
	return &View{
		ID:       id,
		Aliases:  map[string]struct{}{},
		provides: map[string][]string{},
		Permits:  map[string]struct{}{},
	}
}

// AddAlias records name as an alias of the view.
func (v *View) AddAlias(name string) {
	v.Aliases[name] = struct{}{}
}

// AddProvider records that impl implements service interface, appending to
// the ordered provider list for that interface (duplicates are ignored).
func (v *View) AddProvider(iface, impl string) {
	for _, existing := range v.provides[iface] {
		if existing == impl {
			return
		}
	}
	v.provides[iface] = append(v.provides[iface], impl)
}

// ProvidedImpls returns, in insertion order, the implementation class
// names this view provides for iface.
func (v *View) ProvidedImpls(iface string) []string {
	return append([]string(nil), v.provides[iface]...)
}

// ProvidedInterfaces returns the set of service interfaces this view
// provides at least one implementation for.
func (v *View) ProvidedInterfaces() []string {
	out := make([]string, 0, len(v.provides))
	for iface := range v.provides {
		out = append(out, iface)
	}
	return out
}

// Permitted reports whether requester may depend on this view under the
// rule in spec §4.1 Permits: the root synthetic requester is always
// permitted; an empty Permits set permits any non-LOCAL dependence; and a
// non-empty Permits set requires requester's name to appear in it.
func (v *View) Permitted(requester string, isRoot bool, local bool) bool {
	if isRoot {
		return true
	}
	if len(v.Permits) == 0 {
		return !local || requester == v.ID.Name
	}
	_, ok := v.Permits[requester]
	return ok
}

// Info is ModuleInfo (spec §3): a primary id, one or more Views (the
// primary id is also the id of the primary/default view), an ordered list
// of view-dependences, and a set of service-dependences.
type Info struct {
	ID                 moduleid.ID
	views              map[string]*View // keyed by name (primary view keyed by "")
	viewOrder          []string
	ViewDependences    []ViewDependence
	ServiceDependences []ServiceDependence
	classes            Classes
}

// New returns an Info for id with a single, primary view.
func New(id moduleid.ID) *Info {
	primary := NewView(id)
	return &Info{
		ID:        id,
		views:     map[string]*View{"": primary},
		viewOrder: []string{""},
	}
}

// PrimaryView returns the module's default view.
func (i *Info) PrimaryView() *View {
	return i.views[""]
}

// AddView registers an additional named view.
func (i *Info) AddView(name string, view *View) {
	if _, ok := i.views[name]; !ok {
		i.viewOrder = append(i.viewOrder, name)
	}
	i.views[name] = view
}

// Views returns all views (primary first) in declaration order.
func (i *Info) Views() []*View {
	out := make([]*View, 0, len(i.viewOrder))
	for _, name := range i.viewOrder {
		out = append(out, i.views[name])
	}
	return out
}

// ViewNamed looks up a view by its id name (either the module's own name,
// an alias, or a registered alternate view name), returning nil if none
// matches.
func (i *Info) ViewNamed(name string) *View {
	for _, v := range i.Views() {
		if v.ID.Name == name {
			return v
		}
		if _, ok := v.Aliases[name]; ok {
			return v
		}
	}
	return nil
}

// AddViewDependence appends a view-dependence, preserving source order —
// the Resolver relies on this order (spec §4.1: "dependence push order is
// reverse source order so choices are explored in source order").
func (i *Info) AddViewDependence(mods ModifierSet, q moduleid.Query) {
	i.ViewDependences = append(i.ViewDependences, ViewDependence{Modifiers: mods, Query: q})
}

// AddServiceDependence appends a service-dependence.
func (i *Info) AddServiceDependence(mods ModifierSet, iface string) {
	i.ServiceDependences = append(i.ServiceDependences, ServiceDependence{Modifiers: mods, Interface: iface})
}

func (i *Info) String() string {
	return fmt.Sprintf("module %s", i.ID)
}
