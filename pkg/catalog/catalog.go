// Package catalog defines the read-only lookup interfaces the rest of the
// module system is built against (spec §6): Catalog, Library, and
// RemoteRepository. Concrete catalogs (backed by a filesystem tree, a
// database, a network service) are external collaborators; this package
// only fixes the contract, the way the teacher's
// registry.RegistryClientProvider / client.Interface pair fixes the
// contract between the resolver and a concrete operator-registry backend.
package catalog

import (
	"net/url"

	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
)

// Catalog enumerates and describes available modules (spec §6). All
// methods are read-only from the Resolver's perspective; implementations
// may perform blocking I/O but must not yield to any scheduler other than
// the caller's own goroutine (spec §5).
type Catalog interface {
	// ListModuleIds returns every module id the catalog knows about.
	ListModuleIds() ([]moduleid.ID, error)
	// FindModuleIds returns the ids of every version of the named module,
	// in the catalog's own enumeration order (the Resolver re-sorts
	// descending by version before use).
	FindModuleIds(name string) ([]moduleid.ID, error)
	// ReadLocalModuleInfo returns the descriptor for id if this catalog
	// (not a parent) holds it directly, or nil if it doesn't.
	ReadLocalModuleInfo(id moduleid.ID) (*moduleinfo.Info, error)
	// ReadModuleInfo returns the descriptor for id, consulting Parent if
	// this catalog doesn't hold it locally. It is an error if no catalog
	// in the chain has id.
	ReadModuleInfo(id moduleid.ID) (*moduleinfo.Info, error)
	// Parent returns the catalog this one was derived from, or nil for a
	// root catalog.
	Parent() Catalog
	// ListDeclaringModuleIds returns the ids of every module that
	// declares at least one service-provide, for service-provider
	// discovery (spec §4.1 Services).
	ListDeclaringModuleIds() ([]moduleid.ID, error)
}

// RemoteRepositoryMetadata is the sizing information a RemoteRepository
// reports for a module (spec §6): the bytes that would need to be
// downloaded and the bytes the installed module would occupy.
type RemoteRepositoryMetadata struct {
	DownloadSize int64
	InstallSize  int64
}

// RemoteRepository is the external collaborator the Resolver calls into
// when a query can't be satisfied locally (spec §4.1 step 4, §6). Network
// fetching itself is out of scope (spec §1); this interface only names the
// contract the Resolver drives.
type RemoteRepository interface {
	FindModuleIds(name string) ([]moduleid.ID, error)
	FetchMetaData(id moduleid.ID) (RemoteRepositoryMetadata, error)
	Location() url.URL
}

// Library extends Catalog with the remote-repository list and the local
// class, resource and native-library lookups of the spec's §6 "Library"
// interface. Concrete lookups are external to the configurator core and
// are modeled here only as a contract. Installation is not part of this
// interface; pkg/library.FileLibrary provides it as a separate type.
type Library interface {
	Catalog

	RepositoryList() []RemoteRepository
	FindLocalClass(id moduleid.ID, className string) (bool, error)
	FindLocalResource(id moduleid.ID, resourceName string) (bool, error)
	FindLocalNativeLibrary(id moduleid.ID, libName string) (bool, error)
}

// FirstRepository returns the first remote repository registered with l,
// or nil if it has none — the spec's "first repository" policy (§1
// Non-goals: "a policy engine for repository selection beyond 'first
// repository'").
func FirstRepository(l Library) RemoteRepository {
	repos := l.RepositoryList()
	if len(repos) == 0 {
		return nil
	}
	return repos[0]
}
