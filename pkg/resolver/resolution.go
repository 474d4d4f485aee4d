package resolver

import (
	"net/url"

	"github.com/modsys/core/pkg/catalog"
	"github.com/modsys/core/pkg/moduleid"
	"github.com/modsys/core/pkg/moduleinfo"
)

// Resolution is the Resolver's output (spec §4.1 Contract): the chosen
// descriptor per module name, the remote origin of any module that wasn't
// already local, the set of ids that must be downloaded, and the
// cumulative byte totals reported by the remote repository.
type Resolution struct {
	Chosen       map[string]*moduleinfo.Info
	Origins      map[string]url.URL
	Needed       map[moduleid.ID]catalog.RemoteRepositoryMetadata
	DownloadSize int64
	InstallSize  int64
}

func newResolution() *Resolution {
	return &Resolution{
		Chosen:  map[string]*moduleinfo.Info{},
		Origins: map[string]url.URL{},
		Needed:  map[moduleid.ID]catalog.RemoteRepositoryMetadata{},
	}
}

// Names returns the resolved module names in no defined order (map
// iteration order); callers needing a stable order should sort the
// result themselves.
func (r *Resolution) Names() []string {
	names := make([]string, 0, len(r.Chosen))
	for name := range r.Chosen {
		names = append(names, name)
	}
	return names
}
