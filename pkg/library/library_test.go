package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modsys/core/pkg/linking"
	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/modulefile"
)

func TestInstallModuleFileLayout(t *testing.T) {
	dir := t.TempDir()
	lib := New(dir)

	pf := &modulefile.ParsedFile{
		Sections: []modulefile.ParsedSection{
			{Header: modulefile.SectionHeader{Type: modulefile.SectionModuleInfo}, Body: []byte("mi")},
			{
				Header: modulefile.SectionHeader{Type: modulefile.SectionResources},
				Subsections: []modulefile.ParsedSubsection{
					{Header: modulefile.SubsectionHeader{Path: "a/b.properties"}, Content: []byte("k=v")},
				},
			},
		},
	}

	id := moduleid.New("demo")
	require.NoError(t, lib.InstallModuleFile(id, pf))

	got, err := os.ReadFile(filepath.Join(dir, "modules", "demo", "classes", "a", "b.properties"))
	require.NoError(t, err)
	require.Equal(t, "k=v", string(got))
}

func TestInstallModuleFileRejectsEscapingPath(t *testing.T) {
	dir := t.TempDir()
	lib := New(dir)

	pf := &modulefile.ParsedFile{
		Sections: []modulefile.ParsedSection{
			{Header: modulefile.SectionHeader{Type: modulefile.SectionModuleInfo}, Body: []byte("mi")},
			{
				Header: modulefile.SectionHeader{Type: modulefile.SectionResources},
				Subsections: []modulefile.ParsedSubsection{
					{Header: modulefile.SubsectionHeader{Path: "../../outside"}, Content: []byte("bad")},
				},
			},
		},
	}

	err := lib.InstallModuleFile(moduleid.New("demo"), pf)
	require.Error(t, err)
}

func TestWriteReadConfigurationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lib := New(dir)

	root := moduleid.New("app")
	cfg := linking.NewConfiguration(root, nil)
	require.NoError(t, lib.WriteConfiguration(cfg))

	stored, err := lib.ReadConfiguration(root)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, root.String(), stored.RootID)
}

func TestReadConfigurationMissingReturnsNil(t *testing.T) {
	lib := New(t.TempDir())
	stored, err := lib.ReadConfiguration(moduleid.New("nope"))
	require.NoError(t, err)
	require.Nil(t, stored)
}

func goodModuleFile() *modulefile.ParsedFile {
	return &modulefile.ParsedFile{
		Sections: []modulefile.ParsedSection{
			{Header: modulefile.SectionHeader{Type: modulefile.SectionModuleInfo}, Body: []byte("mi")},
		},
	}
}

func badModuleFile() *modulefile.ParsedFile {
	return &modulefile.ParsedFile{
		Sections: []modulefile.ParsedSection{
			{Header: modulefile.SectionHeader{Type: modulefile.SectionModuleInfo}, Body: []byte("mi")},
			{
				Header: modulefile.SectionHeader{Type: modulefile.SectionResources},
				Subsections: []modulefile.ParsedSubsection{
					{Header: modulefile.SubsectionHeader{Path: "../escape"}, Content: []byte("bad")},
				},
			},
		},
	}
}

func TestInstallSessionRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	lib := New(dir)
	sess := lib.NewSession()

	require.NoError(t, sess.InstallModuleFile(moduleid.New("ok-one"), goodModuleFile()))
	require.Error(t, sess.InstallModuleFile(moduleid.New("bad-one"), badModuleFile()))

	require.NoError(t, sess.Rollback())

	_, err := os.Stat(filepath.Join(dir, "modules", "ok-one"))
	require.True(t, os.IsNotExist(err), "rollback must remove directories the session created")
}

func TestInstallModuleFileRejectsDuplicate(t *testing.T) {
	dir := t.TempDir()
	lib := New(dir)

	id := moduleid.New("already-there")
	require.NoError(t, lib.InstallModuleFile(id, goodModuleFile()))

	err := lib.InstallModuleFile(id, goodModuleFile())
	require.Error(t, err)
	var dup *DuplicateInstall
	require.ErrorAs(t, err, &dup)
}

func TestInstallSessionRollbackLeavesPreexistingAlone(t *testing.T) {
	dir := t.TempDir()
	lib := New(dir)

	id := moduleid.New("already-there")
	require.NoError(t, lib.InstallModuleFile(id, goodModuleFile()))

	sess := lib.NewSession()
	require.Error(t, sess.InstallModuleFile(id, goodModuleFile()))
	require.NoError(t, sess.Rollback())

	_, err := os.Stat(filepath.Join(dir, "modules", "already-there"))
	require.NoError(t, err, "rollback must not remove a directory that predated the session")
}
