package resolver

import (
	"net/url"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/require"

	"github.com/modsys/core/pkg/catalog"
	"github.com/modsys/core/pkg/catalog/catalogtest"
	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
)

// fakeLibrary adapts a catalogtest.Fake to catalog.Library by ignoring
// local-artifact lookups, which the Resolver never calls.
type fakeLibrary struct {
	*catalogtest.Fake
	repos []catalog.RemoteRepository
}

func newFakeLibrary(c *catalogtest.Fake, repos ...catalog.RemoteRepository) *fakeLibrary {
	return &fakeLibrary{Fake: c, repos: repos}
}

func (l *fakeLibrary) RepositoryList() []catalog.RemoteRepository { return l.repos }
func (l *fakeLibrary) FindLocalClass(moduleid.ID, string) (bool, error) {
	return false, nil
}
func (l *fakeLibrary) FindLocalResource(moduleid.ID, string) (bool, error) {
	return false, nil
}
func (l *fakeLibrary) FindLocalNativeLibrary(moduleid.ID, string) (bool, error) {
	return false, nil
}

func v(t *testing.T, s string) semver.Version {
	t.Helper()
	ver, err := semver.Parse(s)
	require.NoError(t, err)
	return ver
}

func TestResolveSingleRootHappyPath(t *testing.T) {
	base1 := moduleid.WithVersion("base", v(t, "1.0.0"))
	base09 := moduleid.WithVersion("base", v(t, "0.9.0"))
	app1 := moduleid.WithVersion("app", v(t, "1.0.0"))

	appInfo := moduleinfo.New(app1)
	appInfo.AddViewDependence(moduleinfo.NewModifierSet(), mustRangeQuery(t, "base", ">=1.0.0"))

	c := catalogtest.New().
		Add(appInfo).
		Add(moduleinfo.New(base1)).
		Add(moduleinfo.New(base09))
	lib := newFakeLibrary(c)

	res, err := mustResolver(t, lib).Resolve([]moduleid.Query{moduleid.NewQuery("app")})
	require.NoError(t, err)
	require.Len(t, res.Chosen, 2)
	require.True(t, res.Chosen["app"].ID.Equal(app1))
	require.True(t, res.Chosen["base"].ID.Equal(base1))
}

func TestResolveBacktracksOverVersions(t *testing.T) {
	x3 := moduleid.WithVersion("x", v(t, "3.0.0"))
	x2 := moduleid.WithVersion("x", v(t, "2.0.0"))
	y1 := moduleid.WithVersion("y", v(t, "1.0.0"))
	appID := moduleid.New("app")

	x3Info := moduleinfo.New(x3)
	x3Info.AddViewDependence(moduleinfo.NewModifierSet(), mustRangeQuery(t, "y", "=1.0.1"))

	x2Info := moduleinfo.New(x2)
	x2Info.AddViewDependence(moduleinfo.NewModifierSet(), mustRangeQuery(t, "y", ">=1.0.0"))

	appInfo := moduleinfo.New(appID)
	appInfo.AddViewDependence(moduleinfo.NewModifierSet(), mustRangeQuery(t, "x", ">=2.0.0"))

	c := catalogtest.New().
		Add(appInfo).
		Add(x3Info).
		Add(x2Info).
		Add(moduleinfo.New(y1))
	lib := newFakeLibrary(c)

	res, err := mustResolver(t, lib).Resolve([]moduleid.Query{moduleid.NewQuery("app")})
	require.NoError(t, err)
	require.True(t, res.Chosen["x"].ID.Equal(x2), "x@3 requires an absent y@=1.0.1, so resolution must fall back to x@2")
	require.True(t, res.Chosen["y"].ID.Equal(y1))
}

func TestResolvePermitsEnforced(t *testing.T) {
	lib1 := moduleid.WithVersion("lib", v(t, "1.0.0"))
	libInfo := moduleinfo.New(lib1)
	libInfo.PrimaryView().Permits["friend"] = struct{}{}

	appInfo := moduleinfo.New(moduleid.New("app"))
	appInfo.AddViewDependence(moduleinfo.NewModifierSet(), moduleid.NewQuery("lib"))

	c := catalogtest.New().Add(appInfo).Add(libInfo)
	lib := newFakeLibrary(c)

	_, err := mustResolver(t, lib).Resolve([]moduleid.Query{moduleid.NewQuery("app")})
	require.Error(t, err)

	var unresolvable *Unresolvable
	require.ErrorAs(t, err, &unresolvable)

	var violation *PermitsViolation
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "app", violation.Requester)
}

func TestResolveServiceDiscovery(t *testing.T) {
	appInfo := moduleinfo.New(moduleid.New("app"))
	appInfo.AddServiceDependence(moduleinfo.NewModifierSet(), "svc.Greeter")

	prov1 := moduleid.WithVersion("prov", v(t, "1.0.0"))
	provInfo := moduleinfo.New(prov1)
	provInfo.PrimaryView().AddProvider("svc.Greeter", "prov.impl.Hello")

	c := catalogtest.New().Add(appInfo).Add(provInfo)
	lib := newFakeLibrary(c)

	res, err := mustResolver(t, lib).Resolve([]moduleid.Query{moduleid.NewQuery("app")})
	require.NoError(t, err)
	require.Contains(t, res.Chosen, "prov")
	require.Equal(t, []string{"prov.impl.Hello"}, res.Chosen["prov"].PrimaryView().ProvidedImpls("svc.Greeter"))
}

func TestResolveMissingNonOptionalServiceFails(t *testing.T) {
	appInfo := moduleinfo.New(moduleid.New("app"))
	appInfo.AddServiceDependence(moduleinfo.NewModifierSet(), "svc.Missing")

	c := catalogtest.New().Add(appInfo)
	lib := newFakeLibrary(c)

	_, err := mustResolver(t, lib).Resolve([]moduleid.Query{moduleid.NewQuery("app")})
	require.Error(t, err)

	var missing *MissingService
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "svc.Missing", missing.Interface)
}

func TestResolveFallsBackToRemoteRepository(t *testing.T) {
	appInfo := moduleinfo.New(moduleid.New("app"))
	appInfo.AddViewDependence(moduleinfo.NewModifierSet(), moduleid.NewQuery("plugin"))

	remote := catalogtest.NewFakeRemote()
	pluginID := moduleid.WithVersion("plugin", v(t, "1.2.0"))
	remote.Modules["plugin"] = []moduleid.ID{pluginID}
	remote.Sizes[pluginID] = catalog.RemoteRepositoryMetadata{DownloadSize: 1024, InstallSize: 4096}
	remote.Endpoint = url.URL{Scheme: "https", Host: "repo.example"}

	c := catalogtest.New().Add(appInfo)
	lib := newFakeLibrary(c, remote)

	res, err := mustResolver(t, lib).Resolve([]moduleid.Query{moduleid.NewQuery("app")})
	require.NoError(t, err)
	require.NotContains(t, res.Chosen, "plugin", "a remote-only binding has no local ModuleInfo yet")
	require.Contains(t, res.Needed, pluginID)
	require.Equal(t, int64(1024), res.DownloadSize)
	require.Equal(t, "repo.example", res.Origins["plugin"].Host)
}

func TestResolveOptionalDependenceSkippedWhenAbsent(t *testing.T) {
	appInfo := moduleinfo.New(moduleid.New("app"))
	appInfo.AddViewDependence(moduleinfo.NewModifierSet(moduleinfo.Optional), moduleid.NewQuery("missing"))

	c := catalogtest.New().Add(appInfo)
	lib := newFakeLibrary(c)

	res, err := mustResolver(t, lib).Resolve([]moduleid.Query{moduleid.NewQuery("app")})
	require.NoError(t, err)
	require.NotContains(t, res.Chosen, "missing")
}

func mustRangeQuery(t *testing.T, name, expr string) moduleid.Query {
	t.Helper()
	q, err := moduleid.NewRangeQuery(name, expr)
	require.NoError(t, err)
	return q
}

func mustResolver(t *testing.T, lib catalog.Library) *Resolver {
	t.Helper()
	r, err := New(WithLibrary(lib))
	require.NoError(t, err)
	return r
}
