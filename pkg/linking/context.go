// Package linking implements phases 2-4 of the Configurator pipeline:
// ContextBuilder (spec §4.2) partitions a Resolution into Contexts along
// LOCAL dependence edges; Linker (spec §4.3) and PathLinker (spec §4.4)
// then assign class and package suppliers within and across contexts.
package linking

import (
	"net/url"
	"sort"
	"strings"

	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
	"github.com/modsys/core/pkg/resolver"
)

// Context is spec GLOSSARY's "group of modules that share a class loader
// at run time". It is built mutably (member set keyed by module name) and then
// frozen into an immutable, value-based form — the builder/frozen split
// spec §9's "Freezing" design note calls for.
type Context struct {
	frozen bool

	name    string
	members map[string]*moduleinfo.Info

	viewIDs map[string]moduleid.ID
	aliases map[string]struct{}

	// libraryPath is the origin library path for an installed context
	// (spec §4.2: "file" scheme only). Nil for a context built purely for
	// compile-time linking, or when no member carries a recorded origin.
	libraryPath *url.URL
}

func newContext() *Context {
	return &Context{
		members: map[string]*moduleinfo.Info{},
		viewIDs: map[string]moduleid.ID{},
		aliases: map[string]struct{}{},
	}
}

func (c *Context) addMember(info *moduleinfo.Info) {
	c.members[info.ID.Name] = info
	for _, v := range info.Views() {
		c.viewIDs[v.ID.String()] = v.ID
		for alias := range v.Aliases {
			c.aliases[alias] = struct{}{}
		}
	}
}

// freeze computes the canonical name (spec §4.2: "sorted member names
// joined by '+', prefixed") and marks c immutable. Calling any mutator
// after freeze is a programmer error — it is used only within this
// package's construction code.
func (c *Context) freeze() *Context {
	names := make([]string, 0, len(c.members))
	for name := range c.members {
		names = append(names, name)
	}
	sort.Strings(names)
	c.name = "+" + strings.Join(names, "+")
	c.frozen = true
	return c
}

// Name returns the canonical context name. Empty until the context has
// been frozen.
func (c *Context) Name() string { return c.name }

// Members returns the context's modules in ascending-by-id order (spec
// §5 Ordering: "within a context, module iteration ... is the
// ascending-by-id order").
func (c *Context) Members() []*moduleinfo.Info {
	out := make([]*moduleinfo.Info, 0, len(c.members))
	for _, info := range c.members {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// HasMember reports whether name is a member of this context.
func (c *Context) HasMember(name string) bool {
	_, ok := c.members[name]
	return ok
}

// LibraryPath returns the installed context's origin path, or nil.
func (c *Context) LibraryPath() *url.URL { return c.libraryPath }

// ViewIDs returns every view id known across the context's members.
func (c *Context) ViewIDs() []moduleid.ID {
	out := make([]moduleid.ID, 0, len(c.viewIDs))
	for _, id := range c.viewIDs {
		out = append(out, id)
	}
	sort.Sort(moduleid.ByID(out))
	return out
}

// Aliases returns the union of every member view's alias set.
func (c *Context) Aliases() []string {
	out := make([]string, 0, len(c.aliases))
	for alias := range c.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// ContextSet is the frozen output of ContextBuilder: every resolved
// module appears in exactly one Context.
type ContextSet struct {
	contexts []*Context
	byMember map[string]*Context
}

// Contexts returns the set's contexts in their natural (canonical-name)
// order (spec §5 Ordering).
func (cs *ContextSet) Contexts() []*Context {
	out := append([]*Context(nil), cs.contexts...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ContextOf returns the context containing the named module, or nil.
func (cs *ContextSet) ContextOf(name string) *Context {
	return cs.byMember[name]
}

// Build partitions res into Contexts (spec §4.2). Edges are LOCAL
// view-dependences in either direction; an edge to a name not present in
// res.Chosen is dropped. That happens for an OPTIONAL LOCAL dependence
// that went unsatisfied, and for a dependence on a module bound from the
// remote repository, which has no entry in res.Chosen.
func Build(res *resolver.Resolution) (*ContextSet, error) {
	adjacency := map[string]map[string]struct{}{}
	addEdge := func(a, b string) {
		if adjacency[a] == nil {
			adjacency[a] = map[string]struct{}{}
		}
		if adjacency[b] == nil {
			adjacency[b] = map[string]struct{}{}
		}
		adjacency[a][b] = struct{}{}
		adjacency[b][a] = struct{}{}
	}

	for name, info := range res.Chosen {
		for _, vd := range info.ViewDependences {
			if !vd.Modifiers.Has(moduleinfo.Local) {
				continue
			}
			if _, ok := res.Chosen[vd.Query.Name]; !ok {
				continue
			}
			addEdge(name, vd.Query.Name)
		}
	}

	visited := map[string]bool{}
	var built []*Context
	byMember := map[string]*Context{}

	// Deterministic component discovery: walk names in sorted order so
	// the same Resolution always yields contexts in the same order
	// before the canonical-name sort in Contexts().
	names := make([]string, 0, len(res.Chosen))
	for name := range res.Chosen {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, start := range names {
		if visited[start] {
			continue
		}
		ctx := newContext()
		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			ctx.addMember(res.Chosen[cur])
			for neighbor := range adjacency[cur] {
				if !visited[neighbor] {
					visited[neighbor] = true
					stack = append(stack, neighbor)
				}
			}
		}
		ctx.libraryPath = firstOrigin(ctx, res)
		ctx.freeze()
		built = append(built, ctx)
		for name := range ctx.members {
			byMember[name] = ctx
		}
	}

	return &ContextSet{contexts: built, byMember: byMember}, nil
}

// firstOrigin returns the first file-scheme (or scheme-less) origin
// recorded for a member of ctx, taking members in ascending-by-id order.
// A non-file scheme is a bug per spec §4.2 and is skipped rather than
// adopted as a library path.
func firstOrigin(ctx *Context, res *resolver.Resolution) *url.URL {
	for _, m := range ctx.Members() {
		origin, ok := res.Origins[m.ID.Name]
		if !ok || (origin.Scheme != "" && origin.Scheme != "file") {
			continue
		}
		u := origin
		return &u
	}
	return nil
}
