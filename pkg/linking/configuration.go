package linking

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"sort"

	"github.com/mitchellh/hashstructure"

	"github.com/modsys/core/pkg/moduleid"
)

const (
	configMagic uint32 = 0x4d4f4446 // "MODF"
	configType  uint16 = 1
	configMajor uint16 = 1
	configMinor uint16 = 0
)

// Configuration is the immutable, fully-linked output of the four phases
// for one or more roots (spec GLOSSARY). It is built once, from a
// Link result, and is safe to share across goroutines (spec §5).
type Configuration struct {
	RootID   moduleid.ID
	Contexts []*LinkedContext
}

// NewConfiguration assembles a Configuration from a RootID and the
// contexts Link produced, sorted into their canonical-name order.
func NewConfiguration(root moduleid.ID, contexts []*LinkedContext) *Configuration {
	sorted := append([]*LinkedContext(nil), contexts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })
	return &Configuration{RootID: root, Contexts: sorted}
}

// Hash returns a structural digest of cfg, used to check the idempotence
// property from spec §8 ("computing a configuration twice from the same
// catalog and root yields equal values") without relying on the durable
// wire encoding.
func (cfg *Configuration) Hash() (uint64, error) {
	return hashstructure.Hash(cfg.snapshot(), nil)
}

// Equal reports whether cfg and other are structurally equal. Differing
// hashes short-circuit to false; equal hashes are confirmed with a deep
// comparison of both snapshots, so a hash collision is not a match.
func (cfg *Configuration) Equal(other *Configuration) (bool, error) {
	a, err := cfg.Hash()
	if err != nil {
		return false, err
	}
	b, err := other.Hash()
	if err != nil {
		return false, err
	}
	if a != b {
		return false, nil
	}
	return reflect.DeepEqual(cfg.snapshot(), other.snapshot()), nil
}

// snapshot reduces cfg to plain, order-stable data for hashstructure: the
// library's reflection-based walk is sensitive to map iteration order,
// which Configuration's own types deliberately hide behind sorted
// accessors.
func (cfg *Configuration) snapshot() interface{} {
	type contextSnapshot struct {
		Name           string
		Members        []string
		LocalClasses   map[string]string
		RemotePackages map[string]string
		Services       map[string][]string
	}
	out := struct {
		Root     string
		Contexts []contextSnapshot
	}{Root: cfg.RootID.String()}

	for _, ctx := range cfg.Contexts {
		var members []string
		for _, m := range ctx.Members() {
			members = append(members, m.ID.String())
		}
		services := map[string][]string{}
		for iface, impls := range ctx.services {
			services[iface] = append([]string(nil), impls...)
		}
		out.Contexts = append(out.Contexts, contextSnapshot{
			Name:           ctx.Name(),
			Members:        members,
			LocalClasses:   ctx.localClassSupplier,
			RemotePackages: ctx.remoteSupplierOf,
			Services:       services,
		})
	}
	return out
}

// WriteTo serializes cfg in the durable store format from spec §6: magic,
// type tag, major/minor version, root id, then per context its canonical
// name, member (id, library-path) pairs, local-class (name, module-id)
// pairs, and remote-package (name, context-name) pairs.
func (cfg *Configuration) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := writeUint32(bw, configMagic); err != nil {
		return err
	}
	if err := writeUint16(bw, configType); err != nil {
		return err
	}
	if err := writeUint16(bw, configMajor); err != nil {
		return err
	}
	if err := writeUint16(bw, configMinor); err != nil {
		return err
	}
	if err := writeString(bw, cfg.RootID.String()); err != nil {
		return err
	}
	if err := writeUint32(bw, uint32(len(cfg.Contexts))); err != nil {
		return err
	}

	for _, ctx := range cfg.Contexts {
		if err := writeContext(bw, ctx); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeContext(w *bufio.Writer, ctx *LinkedContext) error {
	if err := writeString(w, ctx.Name()); err != nil {
		return err
	}

	members := ctx.Members()
	if err := writeUint32(w, uint32(len(members))); err != nil {
		return err
	}
	for _, m := range members {
		if err := writeString(w, m.ID.String()); err != nil {
			return err
		}
		path := ""
		if ctx.LibraryPath() != nil {
			path = ctx.LibraryPath().String()
		}
		if err := writeString(w, path); err != nil {
			return err
		}
	}

	classes := sortedKeys(ctx.localClassSupplier)
	if err := writeUint32(w, uint32(len(classes))); err != nil {
		return err
	}
	for _, class := range classes {
		if err := writeString(w, class); err != nil {
			return err
		}
		if err := writeString(w, ctx.localClassSupplier[class]); err != nil {
			return err
		}
	}

	packages := sortedKeys(ctx.remoteSupplierOf)
	if err := writeUint32(w, uint32(len(packages))); err != nil {
		return err
	}
	for _, pkg := range packages {
		if err := writeString(w, pkg); err != nil {
			return err
		}
		if err := writeString(w, ctx.remoteSupplierOf[pkg]); err != nil {
			return err
		}
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeUint32(w io.Writer, v uint32) error { return binary.Write(w, binary.BigEndian, v) }
func writeUint16(w io.Writer, v uint16) error { return binary.Write(w, binary.BigEndian, v) }

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// StoredMember is one (id, library-path) pair from a context's member
// list in the durable store format.
type StoredMember struct {
	ID          string
	LibraryPath string
}

// StoredContext is one context's durable record: its canonical name,
// members, local-class suppliers, and remote-package suppliers. This is
// deliberately a plainer shape than LinkedContext — the store format
// (spec §6) never persists a full ModuleInfo, so reading it back can't
// reconstruct one without re-consulting a Catalog.
type StoredContext struct {
	Name           string
	Members        []StoredMember
	LocalClasses   map[string]string // class -> module id string
	RemotePackages map[string]string // package -> supplying context name
}

// StoredConfiguration is the parsed form of the durable store format
// (spec §6's "Configuration store format"). ReadConfiguration produces
// one; it is the type the round-trip invariant in spec §8
// ("parse(write(cfg)) = cfg") is checked against, since a Configuration
// proper carries live *moduleinfo.Info pointers the store doesn't encode.
type StoredConfiguration struct {
	RootID   string
	Contexts []StoredContext
}

// ToStored reduces cfg to the shape ReadConfiguration would produce from
// cfg.WriteTo's output, for round-trip comparisons in tests.
func (cfg *Configuration) ToStored() StoredConfiguration {
	out := StoredConfiguration{RootID: cfg.RootID.String()}
	for _, ctx := range cfg.Contexts {
		sc := StoredContext{
			Name:           ctx.Name(),
			LocalClasses:   map[string]string{},
			RemotePackages: map[string]string{},
		}
		for _, m := range ctx.Members() {
			path := ""
			if ctx.LibraryPath() != nil {
				path = ctx.LibraryPath().String()
			}
			sc.Members = append(sc.Members, StoredMember{ID: m.ID.String(), LibraryPath: path})
		}
		for class, module := range ctx.localClassSupplier {
			sc.LocalClasses[class] = module
		}
		for pkg, owner := range ctx.remoteSupplierOf {
			sc.RemotePackages[pkg] = owner
		}
		out.Contexts = append(out.Contexts, sc)
	}
	return out
}

// ReadConfiguration parses the durable store format written by
// Configuration.WriteTo.
func ReadConfiguration(r io.Reader) (*StoredConfiguration, error) {
	br := bufio.NewReader(r)

	magic, err := readUint32(br)
	if err != nil {
		return nil, err
	}
	if magic != configMagic {
		return nil, fmt.Errorf("configuration: bad magic %#x", magic)
	}
	if _, err := readUint16(br); err != nil { // type tag
		return nil, err
	}
	if _, err := readUint16(br); err != nil { // major
		return nil, err
	}
	if _, err := readUint16(br); err != nil { // minor
		return nil, err
	}

	rootID, err := readString(br)
	if err != nil {
		return nil, err
	}
	contextCount, err := readUint32(br)
	if err != nil {
		return nil, err
	}

	cfg := &StoredConfiguration{RootID: rootID}
	for i := uint32(0); i < contextCount; i++ {
		ctx, err := readContext(br)
		if err != nil {
			return nil, err
		}
		cfg.Contexts = append(cfg.Contexts, *ctx)
	}
	return cfg, nil
}

func readContext(r *bufio.Reader) (*StoredContext, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	ctx := &StoredContext{Name: name, LocalClasses: map[string]string{}, RemotePackages: map[string]string{}}

	memberCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < memberCount; i++ {
		id, err := readString(r)
		if err != nil {
			return nil, err
		}
		path, err := readString(r)
		if err != nil {
			return nil, err
		}
		ctx.Members = append(ctx.Members, StoredMember{ID: id, LibraryPath: path})
	}

	classCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < classCount; i++ {
		class, err := readString(r)
		if err != nil {
			return nil, err
		}
		module, err := readString(r)
		if err != nil {
			return nil, err
		}
		ctx.LocalClasses[class] = module
	}

	pkgCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < pkgCount; i++ {
		pkg, err := readString(r)
		if err != nil {
			return nil, err
		}
		owner, err := readString(r)
		if err != nil {
			return nil, err
		}
		ctx.RemotePackages[pkg] = owner
	}

	return ctx, nil
}

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readUint16(r io.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
