package moduleinfo

// Modifier is one of the flags a view-dependence or service-dependence may
// carry (spec §3): LOCAL, OPTIONAL, PUBLIC, SYNTHESIZED.
type Modifier int

const (
	// Local marks a dependence whose endpoints must end up in the same
	// context (§4.2 ContextBuilder edges).
	Local Modifier = 1 << iota
	// Optional marks a dependence that may go unsatisfied without failing
	// resolution (§4.1 step 3, §4.1 services post-check).
	Optional
	// Public marks a dependence that is re-exported: packages visible
	// through it propagate transitively for remote-supplier linking
	// (§4.3 phase 4).
	Public
	// Synthesized marks a dependence generated by the resolver itself
	// (service-provider discovery) rather than declared in a descriptor.
	// SYNTHESIZED dependences get the version-constraint allowance
	// described in spec §9's second Open Question.
	Synthesized
)

// ModifierSet is an immutable bag of Modifiers.
type ModifierSet Modifier

// Has reports whether m is present in the set.
func (s ModifierSet) Has(m Modifier) bool {
	return Modifier(s)&m != 0
}

func NewModifierSet(mods ...Modifier) ModifierSet {
	var s Modifier
	for _, m := range mods {
		s |= m
	}
	return ModifierSet(s)
}

func (s ModifierSet) String() string {
	names := []struct {
		m Modifier
		s string
	}{
		{Local, "LOCAL"},
		{Optional, "OPTIONAL"},
		{Public, "PUBLIC"},
		{Synthesized, "SYNTHESIZED"},
	}
	out := ""
	for _, n := range names {
		if s.Has(n.m) {
			if out != "" {
				out += "|"
			}
			out += n.s
		}
	}
	return out
}
