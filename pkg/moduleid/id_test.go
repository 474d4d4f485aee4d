package moduleid

import (
	"sort"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/require"
)

func mustVersion(t *testing.T, s string) semver.Version {
	t.Helper()
	v, err := semver.Parse(s)
	require.NoError(t, err)
	return v
}

func TestIDEqual(t *testing.T) {
	a := WithVersion("base", mustVersion(t, "1.0.0"))
	b := WithVersion("base", mustVersion(t, "1.0.0"))
	c := WithVersion("base", mustVersion(t, "1.0.1"))
	d := New("base")

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(d))
	require.True(t, d.Equal(New("base")))
}

func TestIDLessNilSortsLeast(t *testing.T) {
	versioned := WithVersion("base", mustVersion(t, "1.0.0"))
	unversioned := New("base")

	require.True(t, unversioned.Less(versioned))
	require.False(t, versioned.Less(unversioned))
}

func TestByIDSortsByNameThenVersion(t *testing.T) {
	ids := []ID{
		WithVersion("b", mustVersion(t, "1.0.0")),
		WithVersion("a", mustVersion(t, "2.0.0")),
		WithVersion("a", mustVersion(t, "1.0.0")),
	}
	sort.Sort(ByID(ids))

	require.Equal(t, "a", ids[0].Name)
	require.True(t, ids[0].Version.EQ(mustVersion(t, "1.0.0")))
	require.Equal(t, "a", ids[1].Name)
	require.True(t, ids[1].Version.EQ(mustVersion(t, "2.0.0")))
	require.Equal(t, "b", ids[2].Name)
}

func TestQueryMatches(t *testing.T) {
	q, err := NewRangeQuery("base", ">=1.0.0")
	require.NoError(t, err)

	require.True(t, q.Matches(WithVersion("base", mustVersion(t, "1.0.0"))))
	require.False(t, q.Matches(WithVersion("base", mustVersion(t, "0.9.0"))))
	require.False(t, q.Matches(WithVersion("other", mustVersion(t, "1.0.0"))))
	require.False(t, q.Matches(New("base")), "unversioned id cannot satisfy a ranged query")

	unconstrained := NewQuery("base")
	require.True(t, unconstrained.Matches(New("base")))
}
