// Package library implements spec §6's Library installation entry points
// against a plain filesystem tree: one directory per module id, an
// optional per-root "config" file holding a durable Configuration (spec
// §6 "Configuration store format"), and two ways in a module gets there —
// unpacked from a module-file (spec §4.5) or copied in whole from an
// already-exploded build directory (the "pre-installed manifests" case
// spec §6 names alongside installing from a Resolution).
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	copy "github.com/otiai10/copy"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/modsys/core/pkg/linking"
	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/modulefile"
	"github.com/modsys/core/pkg/resolver"
)

const configFileName = "config"

// FileLibrary installs modules under Root, one subdirectory per module id
// (spec §4.5 §6's subdir mapping governs what lands inside each).
type FileLibrary struct {
	Root string
}

func New(root string) *FileLibrary { return &FileLibrary{Root: root} }

func (l *FileLibrary) moduleDir(id moduleid.ID) string {
	return filepath.Join(l.Root, "modules", id.String())
}

// DuplicateInstall is returned when the target module directory already
// exists (spec §7).
type DuplicateInstall struct {
	ID moduleid.ID
}

func (e *DuplicateInstall) Error() string {
	return fmt.Sprintf("module %s is already installed", e.ID)
}

// InstallModuleFile unpacks a parsed module-file for id under this
// library's tree, routing each subsection to the subdir spec §6 assigns
// its section type and rejecting any path that fails spec §4.5's
// path-safety check — parseOneSection already checked this once against
// the wire format; this is the second, destination-aware check ("escapes
// the destination root") the spec calls out separately. A partial write
// is rolled back by deleting the target module directory (spec §7), and
// installing over an already-installed id fails with DuplicateInstall
// rather than silently merging into it.
func (l *FileLibrary) InstallModuleFile(id moduleid.ID, pf *modulefile.ParsedFile) error {
	dir := l.moduleDir(id)
	if dirExists(dir) {
		return &DuplicateInstall{ID: id}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := installSections(dir, pf); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	return nil
}

func installSections(dir string, pf *modulefile.ParsedFile) error {
	for _, sec := range pf.Sections {
		subdir := filepath.Join(dir, sec.Header.Type.Subdir())
		if len(sec.Subsections) == 0 {
			switch sec.Header.Type {
			case modulefile.SectionModuleInfo, modulefile.SectionSignature, modulefile.SectionConfig:
				if err := writeFileUnder(subdir, sec.Header.Type.String(), sec.Body); err != nil {
					return err
				}
			}
			continue
		}
		for _, sub := range sec.Subsections {
			if err := writeFileUnder(subdir, sub.Header.Path, sub.Content); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFileUnder(destRoot, relPath string, content []byte) error {
	full := filepath.Join(destRoot, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(destRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &os.PathError{Op: "install", Path: relPath, Err: os.ErrPermission}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

// InstallFromDirectory installs a module that's already been exploded
// onto disk (spec §6's "pre-installed manifests" entry point) by copying
// srcDir's tree into this library wholesale.
func (l *FileLibrary) InstallFromDirectory(id moduleid.ID, srcDir string) error {
	dir := l.moduleDir(id)
	if dirExists(dir) {
		return &DuplicateInstall{ID: id}
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return err
	}
	if err := copy.Copy(srcDir, dir); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	return nil
}

// InstallResolution installs each module in res.Chosen that has an entry
// in moduleFiles (keyed by module name), as produced by a Resolver run
// (spec §6: "installation entry points that take ... a Resolution");
// modules without an entry are skipped. It installs through an
// InstallSession so a failure partway through rolls back every
// directory this call created, leaving the library exactly as it was
// found rather than half-installed.
func (l *FileLibrary) InstallResolution(res *resolver.Resolution, moduleFiles map[string]*modulefile.ParsedFile) error {
	sess := l.NewSession()
	var errs []error
	for name, info := range res.Chosen {
		pf, ok := moduleFiles[name]
		if !ok {
			continue
		}
		if err := sess.InstallModuleFile(info.ID, pf); err != nil {
			errs = append(errs, fmt.Errorf("installing %s: %w", info.ID, err))
		}
	}
	if len(errs) > 0 {
		if rbErr := sess.Rollback(); rbErr != nil {
			errs = append(errs, fmt.Errorf("rollback: %w", rbErr))
		}
		return utilerrors.NewAggregate(errs)
	}
	return nil
}

// InstallSession is a bulk-install bookkeeping handle (spec §7): it
// records every module directory it creates so that a later failure
// can delete exactly those and nothing the caller already had on disk,
// the way a partial cluster-resource rollout is undone one created
// object at a time.
type InstallSession struct {
	lib     *FileLibrary
	created []string
}

// NewSession starts a bulk install against l.
func (l *FileLibrary) NewSession() *InstallSession {
	return &InstallSession{lib: l}
}

// InstallModuleFile installs id the same way FileLibrary.InstallModuleFile
// does, additionally recording its directory for this session's rollback
// bookkeeping. InstallModuleFile itself rejects a pre-existing directory
// with DuplicateInstall, so a successful call always means this session
// is the one that created dir.
func (s *InstallSession) InstallModuleFile(id moduleid.ID, pf *modulefile.ParsedFile) error {
	dir := s.lib.moduleDir(id)
	if err := s.lib.InstallModuleFile(id, pf); err != nil {
		return err
	}
	s.created = append(s.created, dir)
	return nil
}

// Rollback removes every directory this session created, in reverse
// creation order, aggregating any removal failures.
func (s *InstallSession) Rollback() error {
	var errs []error
	for i := len(s.created) - 1; i >= 0; i-- {
		if err := os.RemoveAll(s.created[i]); err != nil {
			errs = append(errs, err)
		}
	}
	s.created = nil
	return utilerrors.NewAggregate(errs)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// WriteConfiguration persists cfg under root's directory as the durable
// "config" file (spec §6).
func (l *FileLibrary) WriteConfiguration(cfg *linking.Configuration) error {
	dir := l.moduleDir(cfg.RootID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, configFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	return cfg.WriteTo(f)
}

// ReadConfiguration loads the durable Configuration for root, or nil if
// none has been written yet (spec §6: "readConfiguration(root-id) →
// Configuration?").
func (l *FileLibrary) ReadConfiguration(root moduleid.ID) (*linking.StoredConfiguration, error) {
	f, err := os.Open(filepath.Join(l.moduleDir(root), configFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return linking.ReadConfiguration(f)
}
