package linking

import (
	"sort"

	"github.com/modsys/core/pkg/resolver"
)

// PathContext is PathLinker's per-context output (spec §4.4): a
// dominator ordering of the context's modules instead of a fine-grained
// local-class map, and a set of remote context ids instead of a
// per-package map.
type PathContext struct {
	*Context

	order          []string // module names in dominator order
	remoteContexts map[string]struct{}
}

// Order returns the dominator ordering: modules earlier in the slice take
// precedence for any class they define over modules later in it.
func (c *PathContext) Order() []string { return append([]string(nil), c.order...) }

// RemoteContexts returns, sorted, the names of every context this one
// reaches through a non-LOCAL view-dependence.
func (c *PathContext) RemoteContexts() []string {
	out := make([]string, 0, len(c.remoteContexts))
	for name := range c.remoteContexts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// PathLink runs the compile-time variant of phases 3 & 4 over every
// context in cs. Unlike Link, an absent dominant definition is not an
// error here (spec §4.4: "ambiguous-without-dominant is not an error in
// this case") — ties are broken by the stable ascending-by-id order
// dominatorOrder falls back to.
func PathLink(cs *ContextSet, res *resolver.Resolution) []*PathContext {
	packageOwner := definedPackageIndex(cs)

	var out []*PathContext
	for _, ctx := range cs.Contexts() {
		out = append(out, pathLinkOne(ctx, res, packageOwner))
	}
	return out
}

// definedPackageIndex maps each defined package to the name of the
// context that defines it. PathLinker tolerates a split definition
// (unlike Link's checkSplitPackages) by keeping whichever context it
// encounters first in canonical-name order — a compile-time search path
// is allowed to shadow, it just can't promise uniqueness the way an
// installed Configuration does.
func definedPackageIndex(cs *ContextSet) map[string]string {
	index := map[string]string{}
	for _, ctx := range cs.Contexts() {
		for _, m := range ctx.Members() {
			for pkg := range m.DefinedPackages() {
				if _, ok := index[pkg]; !ok {
					index[pkg] = ctx.Name()
				}
			}
		}
	}
	return index
}

func pathLinkOne(ctx *Context, res *resolver.Resolution, packageOwner map[string]string) *PathContext {
	pc := &PathContext{Context: ctx, remoteContexts: map[string]struct{}{}}
	pc.order = dominatorOrder(ctx)

	for pkg := range importedPackages(ctx, res) {
		owner, ok := packageOwner[pkg]
		if !ok || owner == ctx.Name() {
			continue
		}
		pc.remoteContexts[owner] = struct{}{}
	}

	return pc
}

// dominatorOrder produces a linear order of ctx's members such that, for
// every class with multiple definitions, a module that dominates (via
// the same LOCAL-dependence reachability relation Link uses) the other
// definers precedes them. Members with no dominance relationship between
// them keep the stable ascending-by-id order.
func dominatorOrder(ctx *Context) []string {
	members := ctx.Members()
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.ID.Name
	}

	edges := localDominanceGraph(ctx)
	less := func(a, b string) bool {
		if reachableSet(a, edges)[b] {
			return true
		}
		if reachableSet(b, edges)[a] {
			return false
		}
		return a < b
	}
	sort.SliceStable(names, func(i, j int) bool { return less(names[i], names[j]) })
	return names
}
