package resolver

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/modsys/core/pkg/catalog"
	"github.com/modsys/core/pkg/moduleid"
)

// runServicePhases drains the service-interface FIFO populated while the
// application DFS was binding modules (spec §4.1 Services). Each phase
// synthesizes one OPTIONAL, SYNTHESIZED view-dependence per provider of an
// interface and resolves it; providers bound this way may declare further
// service-dependences, extending the queue into a subsequent phase.
//
// A synthesized choice that fails to resolve is logged and skipped rather
// than failing the whole search, per spec §9's first Open Question: the
// source silently ignores both "no provider found" and "provider-side
// resolution failure" for synthesized optional dependences, and this
// resolver replicates that rather than guessing at a stricter behavior.
func (s *search) runServicePhases() {
	for len(s.serviceQueue) > 0 {
		phase := s.serviceQueue
		s.serviceQueue = nil

		for _, iface := range phase {
			providers, err := s.providersOf(iface)
			if err != nil {
				s.r.log.WithField("interface", iface).WithError(err).Warn("resolver: could not enumerate service providers")
				continue
			}
			for _, providerID := range providers {
				choice := serviceProviderChoiceFor(providerID)
				mark := s.checkpoint()
				if err := s.resolveStack([]Choice{choice}); err != nil {
					s.rollback(mark)
					s.r.log.WithFields(map[string]interface{}{
						"interface": iface,
						"provider":  providerID.String(),
					}).WithError(err).Warn("resolver: synthesized service dependence did not resolve")
				}
			}
		}
	}
}

// providersOf returns, caching per interface, the ids of every module the
// library knows declares at least one implementation of iface, filtered
// through a catalog.ServicePredicate rather than an inline nested loop.
func (s *search) providersOf(iface string) ([]moduleid.ID, error) {
	if cached, ok := s.providerCache[iface]; ok {
		return cached, nil
	}
	declaring, err := s.r.lib.ListDeclaringModuleIds()
	if err != nil {
		return nil, err
	}
	pred := catalog.ProvidesInterface(iface)
	var providers []moduleid.ID
	for _, id := range declaring {
		info, err := s.r.lib.ReadModuleInfo(id)
		if err != nil || info == nil {
			continue
		}
		if pred.Test(info) {
			providers = append(providers, id)
		}
	}
	s.providerCache[iface] = providers
	return providers, nil
}

// postCheck enforces spec §4.1's Post-check: every non-OPTIONAL
// service-dependence discovered during resolution must have at least one
// resolved provider. Every missing service is checked rather than stopping
// at the first failure: a single missing service is returned as its
// *MissingService, and several are reported together as one aggregate,
// the shape the rest of this module's bulk operations use.
func (s *search) postCheck() error {
	var errs []error
	for _, req := range s.serviceReqs {
		if req.Optional {
			continue
		}
		if !s.hasResolvedProvider(req.Interface) {
			errs = append(errs, &MissingService{Interface: req.Interface, Requester: req.Requester})
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return utilerrors.NewAggregate(errs)
}

func (s *search) hasResolvedProvider(iface string) bool {
	pred := catalog.ProvidesInterface(iface)
	for _, info := range s.res.Chosen {
		if pred.Test(info) {
			return true
		}
	}
	return false
}
