package linking

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
	"github.com/modsys/core/pkg/resolver"
)

func res(chosen ...*moduleinfo.Info) *resolver.Resolution {
	out := &resolver.Resolution{Chosen: map[string]*moduleinfo.Info{}}
	for _, info := range chosen {
		out.Chosen[info.ID.Name] = info
	}
	return out
}

func TestBuildSingleRootNoLocalDeps(t *testing.T) {
	app := moduleinfo.New(moduleid.New("app"))
	app.AddViewDependence(moduleinfo.NewModifierSet(), moduleid.NewQuery("base"))
	base := moduleinfo.New(moduleid.New("base"))

	cs, err := Build(res(app, base))
	require.NoError(t, err)
	require.Len(t, cs.Contexts(), 2, "no LOCAL dependences means one context per module")
}

func TestBuildLocalDependenceMergesContexts(t *testing.T) {
	a := moduleinfo.New(moduleid.New("a"))
	a.AddViewDependence(moduleinfo.NewModifierSet(moduleinfo.Local), moduleid.NewQuery("b"))
	b := moduleinfo.New(moduleid.New("b"))
	b.AddViewDependence(moduleinfo.NewModifierSet(moduleinfo.Local), moduleid.NewQuery("c"))
	c := moduleinfo.New(moduleid.New("c"))

	cs, err := Build(res(a, b, c))
	require.NoError(t, err)
	require.Len(t, cs.Contexts(), 1)
	require.Equal(t, "+a+b+c", cs.Contexts()[0].Name())
}

func TestLinkDominanceResolvesSplitClass(t *testing.T) {
	a := moduleinfo.New(moduleid.New("a"))
	a.AddClass("com.example.Widget")
	a.AddViewDependence(moduleinfo.NewModifierSet(moduleinfo.Local), moduleid.NewQuery("b"))

	b := moduleinfo.New(moduleid.New("b"))
	b.AddClass("com.example.Widget")

	cs, err := Build(res(a, b))
	require.NoError(t, err)
	linked, err := Link(cs, res(a, b))
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.Equal(t, "a", linked[0].LocalSupplierOf("com.example.Widget"), "a locally-requires b, so a's definition dominates")
}

func TestLinkAmbiguousClassWithoutDominance(t *testing.T) {
	a := moduleinfo.New(moduleid.New("a"))
	a.AddClass("com.example.Widget")
	a.AddViewDependence(moduleinfo.NewModifierSet(), moduleid.NewQuery("b")) // not LOCAL: no merge, no dominance

	b := moduleinfo.New(moduleid.New("b"))
	b.AddClass("com.example.Widget")

	// Force a and b into the same context artificially by making both
	// LOCAL-dependent on a third, shared module, with neither dominating
	// the other.
	a.AddViewDependence(moduleinfo.NewModifierSet(moduleinfo.Local), moduleid.NewQuery("shared"))
	b.AddViewDependence(moduleinfo.NewModifierSet(moduleinfo.Local), moduleid.NewQuery("shared"))
	shared := moduleinfo.New(moduleid.New("shared"))

	r := res(a, b, shared)
	cs, err := Build(r)
	require.NoError(t, err)
	require.Len(t, cs.Contexts(), 1)

	_, err = Link(cs, r)
	require.Error(t, err)
	var ambiguous *AmbiguousClass
	require.ErrorAs(t, err, &ambiguous)
	require.Equal(t, "com.example.Widget", ambiguous.ClassName)
}

func TestLinkRemotePackageRouting(t *testing.T) {
	app := moduleinfo.New(moduleid.New("app"))
	app.AddViewDependence(moduleinfo.NewModifierSet(), moduleid.NewQuery("base"))

	base := moduleinfo.New(moduleid.New("base"))
	base.AddClass("com.example.base.Thing")

	r := res(app, base)
	cs, err := Build(r)
	require.NoError(t, err)
	linked, err := Link(cs, r)
	require.NoError(t, err)

	var appCtx *LinkedContext
	for _, lc := range linked {
		if lc.HasMember("app") {
			appCtx = lc
		}
	}
	require.NotNil(t, appCtx)
	require.Equal(t, "+base", appCtx.RemoteSupplierOf("com.example.base"))
}

func TestLinkServiceProviderOrdering(t *testing.T) {
	a := moduleinfo.New(moduleid.New("a"))
	a.PrimaryView().AddProvider("svc.Greeter", "a.impl.First")
	a.AddViewDependence(moduleinfo.NewModifierSet(moduleinfo.Local), moduleid.NewQuery("b"))

	b := moduleinfo.New(moduleid.New("b"))
	b.PrimaryView().AddProvider("svc.Greeter", "b.impl.Second")

	r := res(a, b)
	cs, err := Build(r)
	require.NoError(t, err)
	linked, err := Link(cs, r)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	impls := linked[0].ProvidedImpls("svc.Greeter")
	require.Equal(t, []string{"a.impl.First", "b.impl.Second"}, impls, "ascending-by-id member order (a before b) determines provider priority")
}

func TestConfigurationRoundTrip(t *testing.T) {
	app := moduleinfo.New(moduleid.New("app"))
	app.AddClass("com.example.App")
	base := moduleinfo.New(moduleid.New("base"))
	base.AddClass("com.example.base.Thing")
	app.AddViewDependence(moduleinfo.NewModifierSet(), moduleid.NewQuery("base"))

	r := res(app, base)
	cs, err := Build(r)
	require.NoError(t, err)
	linked, err := Link(cs, r)
	require.NoError(t, err)

	cfg := NewConfiguration(moduleid.New("app"), linked)

	var buf bytes.Buffer
	require.NoError(t, cfg.WriteTo(&buf))

	stored, err := ReadConfiguration(&buf)
	require.NoError(t, err)
	require.Equal(t, cfg.ToStored(), *stored)
}

func TestConfigurationIdempotence(t *testing.T) {
	app := moduleinfo.New(moduleid.New("app"))
	app.AddViewDependence(moduleinfo.NewModifierSet(), moduleid.NewQuery("base"))
	base := moduleinfo.New(moduleid.New("base"))

	build := func() *Configuration {
		r := res(app, base)
		cs, err := Build(r)
		require.NoError(t, err)
		linked, err := Link(cs, r)
		require.NoError(t, err)
		return NewConfiguration(moduleid.New("app"), linked)
	}

	a, b := build(), build()
	equal, err := a.Equal(b)
	require.NoError(t, err)
	require.True(t, equal)
}
