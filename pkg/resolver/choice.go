package resolver

import (
	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
)

// Choice is one unresolved requirement on the resolver's search stack (spec
// §4.1 Algorithm): a requesting module name (empty for the synthetic
// root), the modifiers the dependence carries, and the query identifying
// the module it requires.
type Choice struct {
	Requester string
	Modifiers moduleinfo.ModifierSet
	Query     moduleid.Query
	Kind      ChoiceKind
}

func rootChoice(q moduleid.Query) Choice {
	return Choice{Query: q, Kind: ApplicationChoice}
}

func viewDependenceChoice(requester string, vd moduleinfo.ViewDependence) Choice {
	return Choice{Requester: requester, Modifiers: vd.Modifiers, Query: vd.Query, Kind: ApplicationChoice}
}

// serviceProviderChoiceFor synthesizes the OPTIONAL, SYNTHESIZED
// dependence the Resolver tries on a service provider's behalf (spec
// §4.1 Services). Its requester is always the synthetic root: a provider
// is admitted on the strength of declaring the interface, not because any
// particular module asked for it.
func serviceProviderChoiceFor(providerID moduleid.ID) Choice {
	return Choice{
		Modifiers: moduleinfo.NewModifierSet(moduleinfo.Optional, moduleinfo.Synthesized),
		Query:     moduleid.NewQuery(providerID.Name),
		Kind:      ServiceProviderChoice,
	}
}
