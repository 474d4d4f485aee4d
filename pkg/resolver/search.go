package resolver

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/modsys/core/pkg/catalog"
	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
)

// serviceRequirement records one service-dependence discovered while
// binding a module, for the post-check in spec §4.1.
type serviceRequirement struct {
	Interface string
	Requester string
	Optional  bool
}

// undoFunc reverses one mutation made during the search, per spec §9's
// "Backtracking state" design note: an explicit undo log rather than
// exception-driven unwinding.
type undoFunc func()

// search carries the mutable state threaded through the recursive
// backtracking walk: the Resolution being built, the modules bound purely
// by name (no ModuleInfo available, because they were bound against the
// remote repository and never fetched), the service-discovery FIFO, and
// the undo log.
type search struct {
	r *Resolver

	res         *Resolution
	remoteBound map[string]moduleid.ID

	serviceQueue  []string
	serviceReqs   []serviceRequirement
	providerCache map[string][]moduleid.ID

	undo []undoFunc
}

func newSearch(r *Resolver) *search {
	return &search{
		r:             r,
		res:           newResolution(),
		remoteBound:   map[string]moduleid.ID{},
		providerCache: map[string][]moduleid.ID{},
	}
}

func (s *search) checkpoint() int { return len(s.undo) }

func (s *search) rollback(mark int) {
	for i := len(s.undo) - 1; i >= mark; i-- {
		s.undo[i]()
	}
	s.undo = s.undo[:mark]
}

func (s *search) record(fn undoFunc) { s.undo = append(s.undo, fn) }

// bindLocal tentatively binds name to info, recording the service-
// dependences it declares, all reversible via the undo log.
func (s *search) bindLocal(name string, info *moduleinfo.Info) {
	s.res.Chosen[name] = info
	s.record(func() { delete(s.res.Chosen, name) })

	reqsBefore := len(s.serviceReqs)
	queueBefore := len(s.serviceQueue)
	for _, sd := range info.ServiceDependences {
		s.serviceReqs = append(s.serviceReqs, serviceRequirement{
			Interface: sd.Interface,
			Requester: name,
			Optional:  sd.Modifiers.Has(moduleinfo.Optional),
		})
		s.serviceQueue = append(s.serviceQueue, sd.Interface)
	}
	s.record(func() {
		s.serviceReqs = s.serviceReqs[:reqsBefore]
		s.serviceQueue = s.serviceQueue[:queueBefore]
	})
}

func (s *search) bindRemote(name string, id moduleid.ID, meta catalog.RemoteRepositoryMetadata, loc url.URL) {
	s.remoteBound[name] = id
	s.res.Needed[id] = meta
	s.res.Origins[name] = loc
	s.res.DownloadSize += meta.DownloadSize
	s.res.InstallSize += meta.InstallSize
	s.record(func() {
		delete(s.remoteBound, name)
		delete(s.res.Needed, id)
		delete(s.res.Origins, name)
		s.res.DownloadSize -= meta.DownloadSize
		s.res.InstallSize -= meta.InstallSize
	})
}

// resolveStack processes the top of stack, pushing any newly discovered
// dependences above the remainder before recursing — reverse source-order
// pushes (spec §4.1 Determinism) make this a plain LIFO walk.
func (s *search) resolveStack(stack []Choice) error {
	if len(stack) == 0 {
		return nil
	}
	choice := stack[len(stack)-1]
	rest := stack[:len(stack)-1]
	return s.resolveChoice(choice, rest)
}

func (s *search) resolveChoice(choice Choice, rest []Choice) error {
	name := choice.Query.Name

	if info, ok := s.res.Chosen[name]; ok {
		if !s.matches(choice, info.ID) {
			return &Unresolvable{Query: choice.Query.String(), Reason: fmt.Errorf("already bound to %s", info.ID)}
		}
		if !s.permits(choice, info) {
			return &Unresolvable{Query: choice.Query.String(), Reason: &PermitsViolation{Requester: choice.Requester, ViewID: info.ID.String()}}
		}
		return s.resolveStack(rest)
	}
	if id, ok := s.remoteBound[name]; ok {
		if !s.matches(choice, id) {
			return &Unresolvable{Query: choice.Query.String(), Reason: fmt.Errorf("already bound remotely to %s", id)}
		}
		return s.resolveStack(rest)
	}

	candidates, err := s.r.lib.FindModuleIds(name)
	if err != nil {
		return &Unresolvable{Query: choice.Query.String(), Reason: err}
	}
	sortDescending(candidates)

	var lastErr error
	for _, id := range candidates {
		if !s.matches(choice, id) {
			continue
		}
		info, err := s.r.lib.ReadModuleInfo(id)
		if err != nil || info == nil {
			lastErr = err
			continue
		}
		if !s.permits(choice, info) {
			lastErr = &PermitsViolation{Requester: choice.Requester, ViewID: info.ID.String()}
			continue
		}

		s.r.tracer.OnAttempt(choice, id.String())
		mark := s.checkpoint()
		s.bindLocal(name, info)

		deps := info.ViewDependences
		newStack := make([]Choice, 0, len(rest)+len(deps))
		newStack = append(newStack, rest...)
		for i := len(deps) - 1; i >= 0; i-- {
			newStack = append(newStack, viewDependenceChoice(name, deps[i]))
		}

		err = s.resolveStack(newStack)
		if err == nil {
			return nil
		}
		s.r.tracer.OnBacktrack(choice, id.String(), err)
		s.rollback(mark)
		lastErr = err
	}

	if choice.Modifiers.Has(moduleinfo.Optional) {
		return s.resolveStack(rest)
	}

	if remote := catalog.FirstRepository(s.r.lib); remote != nil {
		remoteIDs, err := remote.FindModuleIds(name)
		if err == nil {
			sortDescending(remoteIDs)
			for _, id := range remoteIDs {
				if !s.matches(choice, id) {
					continue
				}
				meta, err := remote.FetchMetaData(id)
				if err != nil {
					lastErr = err
					continue
				}
				mark := s.checkpoint()
				s.bindRemote(name, id, meta, remote.Location())
				rerr := s.resolveStack(rest)
				if rerr == nil {
					return nil
				}
				s.rollback(mark)
				lastErr = rerr
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate found for %s", name)
	}
	return &Unresolvable{Query: choice.Query.String(), Reason: lastErr}
}

// matches reports whether id satisfies choice's query, with the allowance
// from spec §9's second Open Question: a SYNTHESIZED dependence matches on
// name alone, ignoring any version range the query carries, since it was
// built by the resolver itself rather than declared against a specific
// range. Built as a catalog.Predicate so candidate filtering goes through
// the same composable-filter idiom the catalog package exposes, rather
// than an inline boolean expression.
func (s *search) matches(choice Choice, id moduleid.ID) bool {
	return candidatePredicate(choice).Test(id)
}

func candidatePredicate(choice Choice) catalog.Predicate {
	if choice.Modifiers.Has(moduleinfo.Synthesized) {
		return catalog.NameEqual(choice.Query.Name)
	}
	return catalog.VersionSatisfies(choice.Query)
}

// permits applies spec §4.1's Permits rule against the view of info that
// matches the query's name, falling back to the primary view for a query
// that names the module itself rather than an alternate view.
func (s *search) permits(choice Choice, info *moduleinfo.Info) bool {
	view := info.ViewNamed(choice.Query.Name)
	if view == nil {
		view = info.PrimaryView()
	}
	isRoot := choice.Requester == ""
	local := choice.Modifiers.Has(moduleinfo.Local)
	return view.Permitted(choice.Requester, isRoot, local)
}

func sortDescending(ids []moduleid.ID) {
	sort.SliceStable(ids, func(i, j int) bool { return ids[j].Less(ids[i]) })
}
