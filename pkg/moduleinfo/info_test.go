package moduleinfo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modsys/core/pkg/moduleid"
)

func TestViewPermittedRules(t *testing.T) {
	v := NewView(moduleid.New("lib"))

	require.True(t, v.Permitted("anyone", true, false), "root requester is always permitted")
	require.True(t, v.Permitted("anyone", false, false), "empty permits admits a non-LOCAL requester")
	require.False(t, v.Permitted("other", false, true), "empty permits rejects a LOCAL requester that isn't self")
	require.True(t, v.Permitted("lib", false, true), "a module may LOCAL-require its own view")

	v.Permits["friend"] = struct{}{}
	require.True(t, v.Permitted("friend", false, false))
	require.False(t, v.Permitted("stranger", false, false))
}

func TestViewProvidedImplsPreservesInsertionOrder(t *testing.T) {
	v := NewView(moduleid.New("provider"))
	v.AddProvider("svc.Interface", "impl.B")
	v.AddProvider("svc.Interface", "impl.A")
	v.AddProvider("svc.Interface", "impl.B") // duplicate, ignored

	require.Equal(t, []string{"impl.B", "impl.A"}, v.ProvidedImpls("svc.Interface"))
}

func TestInfoViewsPrimaryFirst(t *testing.T) {
	info := New(moduleid.New("m"))
	info.AddView("extra", NewView(moduleid.New("m.extra")))

	views := info.Views()
	require.Len(t, views, 2)
	require.Equal(t, "m", views[0].ID.Name)
	require.Equal(t, "m.extra", views[1].ID.Name)
}

func TestPackageOf(t *testing.T) {
	require.Equal(t, "com.example", PackageOf("com.example.Foo"))
	require.Equal(t, "", PackageOf("Foo"))
}

func TestDefinedPackages(t *testing.T) {
	info := New(moduleid.New("m"))
	info.AddClass("com.example.Foo")
	info.AddClass("com.example.Bar")
	info.AddClass("Baz")

	pkgs := info.DefinedPackages()
	require.Contains(t, pkgs, "com.example")
	require.Contains(t, pkgs, "")
	require.Len(t, pkgs, 2)
}
