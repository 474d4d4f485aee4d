// Package catalogtest provides an in-memory catalog.Catalog fixture for
// tests across the module system, mirroring the role the teacher's
// in-memory CatalogSnapshot plays in cache_test.go / satresolver_test.go.
package catalogtest

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/modsys/core/pkg/catalog"
	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
)

// Fake is an in-memory catalog.Catalog backed by a fixed set of
// descriptors, optionally chained to a parent and a remote repository.
type Fake struct {
	byName map[string][]*moduleinfo.Info // preserves insertion order per name
	parent catalog.Catalog
	remote catalog.RemoteRepository
}

var _ catalog.Catalog = (*Fake)(nil)

// New returns an empty Fake catalog.
func New() *Fake {
	return &Fake{byName: map[string][]*moduleinfo.Info{}}
}

// WithParent sets the catalog consulted by ReadModuleInfo when a module
// isn't held locally.
func (f *Fake) WithParent(parent catalog.Catalog) *Fake {
	f.parent = parent
	return f
}

// WithRemote attaches a single remote repository, returned by Remote.
// Fake is not a catalog.Library; a test wrapper that adapts it supplies
// RepositoryList itself.
func (f *Fake) WithRemote(remote catalog.RemoteRepository) *Fake {
	f.remote = remote
	return f
}

// Add registers a descriptor under its own id's name.
func (f *Fake) Add(info *moduleinfo.Info) *Fake {
	f.byName[info.ID.Name] = append(f.byName[info.ID.Name], info)
	return f
}

func (f *Fake) ListModuleIds() ([]moduleid.ID, error) {
	var ids []moduleid.ID
	for _, infos := range f.byName {
		for _, info := range infos {
			ids = append(ids, info.ID)
		}
	}
	sort.Sort(moduleid.ByID(ids))
	return ids, nil
}

func (f *Fake) FindModuleIds(name string) ([]moduleid.ID, error) {
	var ids []moduleid.ID
	for _, info := range f.byName[name] {
		ids = append(ids, info.ID)
	}
	return ids, nil
}

func (f *Fake) ReadLocalModuleInfo(id moduleid.ID) (*moduleinfo.Info, error) {
	for _, info := range f.byName[id.Name] {
		if info.ID.Equal(id) {
			return info, nil
		}
	}
	return nil, nil
}

func (f *Fake) ReadModuleInfo(id moduleid.ID) (*moduleinfo.Info, error) {
	info, err := f.ReadLocalModuleInfo(id)
	if err != nil || info != nil {
		return info, err
	}
	if f.parent != nil {
		return f.parent.ReadModuleInfo(id)
	}
	return nil, fmt.Errorf("module %s not found in catalog", id)
}

func (f *Fake) Parent() catalog.Catalog { return f.parent }

func (f *Fake) ListDeclaringModuleIds() ([]moduleid.ID, error) {
	var ids []moduleid.ID
	for _, infos := range f.byName {
		for _, info := range infos {
			for _, v := range info.Views() {
				if len(v.ProvidedInterfaces()) > 0 {
					ids = append(ids, info.ID)
					break
				}
			}
		}
	}
	sort.Sort(moduleid.ByID(ids))
	return ids, nil
}

// Remote returns the attached remote repository, or nil.
func (f *Fake) Remote() catalog.RemoteRepository { return f.remote }

// FakeRemote is a minimal in-memory catalog.RemoteRepository for tests.
type FakeRemote struct {
	Modules  map[string][]moduleid.ID
	Sizes    map[moduleid.ID]catalog.RemoteRepositoryMetadata
	Endpoint url.URL
}

var _ catalog.RemoteRepository = (*FakeRemote)(nil)

func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		Modules: map[string][]moduleid.ID{},
		Sizes:   map[moduleid.ID]catalog.RemoteRepositoryMetadata{},
	}
}

func (r *FakeRemote) FindModuleIds(name string) ([]moduleid.ID, error) {
	return r.Modules[name], nil
}

func (r *FakeRemote) FetchMetaData(id moduleid.ID) (catalog.RemoteRepositoryMetadata, error) {
	meta, ok := r.Sizes[id]
	if !ok {
		return catalog.RemoteRepositoryMetadata{}, fmt.Errorf("no metadata for %s", id)
	}
	return meta, nil
}

func (r *FakeRemote) Location() url.URL { return r.Endpoint }
