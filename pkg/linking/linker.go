package linking

import (
	"sort"

	"github.com/modsys/core/pkg/moduleinfo"
	"github.com/modsys/core/pkg/resolver"
)

// LinkedContext is a Context after phases 3 & 4 (spec §4.3): a single
// supplier per locally-defined class, a single supplying context per
// imported package, and a per-context services map.
type LinkedContext struct {
	*Context

	localClassSupplier map[string]string // class -> member module name
	remoteSupplierOf   map[string]string // package -> supplying context name
	suppliers          map[string]struct{}
	services           map[string][]string // interface -> ordered impl names
}

// LocalSupplierOf returns the module that supplies class within this
// context, or "" if the context defines no such class.
func (c *LinkedContext) LocalSupplierOf(class string) string {
	return c.localClassSupplier[class]
}

// RemoteSupplierOf returns the context name that supplies pkg to this
// context, or "" if pkg isn't imported here.
func (c *LinkedContext) RemoteSupplierOf(pkg string) string {
	return c.remoteSupplierOf[pkg]
}

// SupplyingContexts returns, sorted, the names of every context this one
// draws at least one package from.
func (c *LinkedContext) SupplyingContexts() []string {
	out := make([]string, 0, len(c.suppliers))
	for name := range c.suppliers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ProvidedImpls returns the insertion-ordered implementations this
// context's members collectively provide for a service interface.
func (c *LinkedContext) ProvidedImpls(iface string) []string {
	return append([]string(nil), c.services[iface]...)
}

// Link runs phases 3 & 4 over every context in cs (spec §4.3).
func Link(cs *ContextSet, res *resolver.Resolution) ([]*LinkedContext, error) {
	packageOwner, err := checkSplitPackages(cs)
	if err != nil {
		return nil, err
	}

	var linked []*LinkedContext
	for _, ctx := range cs.Contexts() {
		lc, err := linkOne(ctx, cs, res, packageOwner)
		if err != nil {
			return nil, err
		}
		linked = append(linked, lc)
	}
	return linked, nil
}

// checkSplitPackages builds the global package→defining-contexts map and
// fails fast if any package is defined by more than one context (spec
// §4.3: "else fail with SplitPackage at phase 2 results check").
func checkSplitPackages(cs *ContextSet) (map[string]string, error) {
	definedBy := map[string]map[string]struct{}{}
	for _, ctx := range cs.Contexts() {
		for _, m := range ctx.Members() {
			for pkg := range m.DefinedPackages() {
				if definedBy[pkg] == nil {
					definedBy[pkg] = map[string]struct{}{}
				}
				definedBy[pkg][ctx.Name()] = struct{}{}
			}
		}
	}
	owner := map[string]string{}
	for pkg, contexts := range definedBy {
		if len(contexts) > 1 {
			names := make([]string, 0, len(contexts))
			for name := range contexts {
				names = append(names, name)
			}
			sort.Strings(names)
			return nil, &SplitPackage{Package: pkg, Contexts: names}
		}
		for name := range contexts {
			owner[pkg] = name
		}
	}
	return owner, nil
}

func linkOne(ctx *Context, cs *ContextSet, res *resolver.Resolution, packageOwner map[string]string) (*LinkedContext, error) {
	lc := &LinkedContext{
		Context:            ctx,
		localClassSupplier: map[string]string{},
		remoteSupplierOf:   map[string]string{},
		suppliers:          map[string]struct{}{},
		services:           map[string][]string{},
	}

	if err := assignLocalClasses(lc); err != nil {
		return nil, err
	}
	if err := assignRemotePackages(lc, res, packageOwner); err != nil {
		return nil, err
	}
	assignServices(lc)

	return lc, nil
}

// assignLocalClasses implements phase 3's local-supplier linking,
// including dominance resolution for classes defined by more than one
// member.
func assignLocalClasses(lc *LinkedContext) error {
	definers := map[string][]string{}
	for _, m := range lc.Members() {
		for class := range m.DefinedClasses() {
			definers[class] = append(definers[class], m.ID.Name)
		}
	}

	dominates := localDominanceGraph(lc.Context)

	for class, names := range definers {
		sort.Strings(names)
		if len(names) == 1 {
			lc.localClassSupplier[class] = names[0]
			continue
		}
		dominant, ok := uniqueDominant(names, dominates)
		if !ok {
			return &AmbiguousClass{Context: lc.Name(), ClassName: class, Definers: names}
		}
		lc.localClassSupplier[class] = dominant
	}
	return nil
}

// localDominanceGraph builds the directed reachability relation that
// decides dominance: a LOCAL dependence R→S means R's definitions
// shadow S's (spec §4.3: "drawn from view declarations" — the module
// that declares the dependence is treated as the one patching/overriding
// what it depends on).
func localDominanceGraph(ctx *Context) map[string][]string {
	edges := map[string][]string{}
	for _, m := range ctx.Members() {
		for _, vd := range m.ViewDependences {
			if !vd.Modifiers.Has(moduleinfo.Local) {
				continue
			}
			if !ctx.HasMember(vd.Query.Name) {
				continue
			}
			edges[m.ID.Name] = append(edges[m.ID.Name], vd.Query.Name)
		}
	}
	return edges
}

// uniqueDominant returns the single definer in names that reaches (via
// edges, directly or transitively) every other definer in names, or
// false if no such definer exists or more than one does.
func uniqueDominant(names []string, edges map[string][]string) (string, bool) {
	var dominant string
	found := 0
	for _, candidate := range names {
		reachable := reachableSet(candidate, edges)
		dominatesAll := true
		for _, other := range names {
			if other == candidate {
				continue
			}
			if !reachable[other] {
				dominatesAll = false
				break
			}
		}
		if dominatesAll {
			dominant = candidate
			found++
		}
	}
	if found != 1 {
		return "", false
	}
	return dominant, true
}

func reachableSet(start string, edges map[string][]string) map[string]bool {
	visited := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range edges[cur] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return visited
}

// assignRemotePackages implements phase 4: every package imported into
// lc (direct, plus transitively through PUBLIC view-dependences) must
// resolve to exactly one supplying context.
func assignRemotePackages(lc *LinkedContext, res *resolver.Resolution, packageOwner map[string]string) error {
	imported := importedPackages(lc.Context, res)
	for pkg := range imported {
		owner, ok := packageOwner[pkg]
		if !ok {
			return &AmbiguousPackage{Context: lc.Name(), Package: pkg, Suppliers: nil}
		}
		if owner == lc.Name() {
			continue // satisfied by a member of this same context
		}
		lc.remoteSupplierOf[pkg] = owner
		lc.suppliers[owner] = struct{}{}
	}
	return nil
}

// importedPackages walks the non-LOCAL view-dependences of ctx's members,
// then transitively through PUBLIC non-LOCAL dependences of whatever
// modules those reach, collecting every defined package along the way.
func importedPackages(ctx *Context, res *resolver.Resolution) map[string]struct{} {
	visited := map[string]struct{}{}
	packages := map[string]struct{}{}

	var queue []string
	for _, m := range ctx.Members() {
		for _, vd := range m.ViewDependences {
			if vd.Modifiers.Has(moduleinfo.Local) {
				continue
			}
			if ctx.HasMember(vd.Query.Name) {
				continue
			}
			queue = append(queue, vd.Query.Name)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, ok := visited[name]; ok {
			continue
		}
		visited[name] = struct{}{}

		target, ok := res.Chosen[name]
		if !ok {
			continue
		}
		for pkg := range target.DefinedPackages() {
			packages[pkg] = struct{}{}
		}
		for _, vd := range target.ViewDependences {
			if vd.Modifiers.Has(moduleinfo.Local) || !vd.Modifiers.Has(moduleinfo.Public) {
				continue
			}
			queue = append(queue, vd.Query.Name)
		}
	}
	return packages
}

// assignServices populates lc's services map, preserving declaration
// order across the context's ascending-by-id member order and each
// member's view order (spec §4.3 Side-effects, §5 Ordering).
func assignServices(lc *LinkedContext) {
	for _, m := range lc.Members() {
		for _, v := range m.Views() {
			for _, iface := range v.ProvidedInterfaces() {
				for _, impl := range v.ProvidedImpls(iface) {
					lc.services[iface] = appendUnique(lc.services[iface], impl)
				}
			}
		}
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
