package store

import (
	"time"

	"github.com/jward/zopescan/internal/model"
)

// Snapshot is a finalized System flattened into rows, ready to be written
// by SaveSnapshot. Rows refer to each other by full name or path; real IDs
// are assigned on commit.
type Snapshot struct {
	Files           []File
	Symbols         []Symbol
	Bases           []Base
	Implementations []Implementation
	Implementers    []Implementer
	Warnings        []Warning
}

// NewSnapshot flattens sys. hashes maps module file paths to content
// hashes; modules without a path (packages created for missing __init__
// files) get no file row.
func NewSnapshot(sys *model.System, hashes map[string]string) *Snapshot {
	snap := &Snapshot{}
	now := time.Now().UTC().Truncate(time.Second)

	for _, mod := range sys.Modules() {
		if mod.Path == "" {
			continue
		}
		snap.Files = append(snap.Files, File{
			Path:        mod.Path,
			Module:      mod.FullName,
			IsPackage:   mod.IsPackage(),
			Hash:        hashes[mod.Path],
			LastIndexed: now,
		})
	}

	for _, obj := range sys.Objects() {
		base := obj.Base()
		sym := Symbol{
			FullName:  base.FullName,
			Name:      base.Name,
			Kind:      string(base.Kind),
			Line:      base.Line,
			Docstring: base.Docstring,
		}
		if base.Parent != nil {
			sym.Parent = base.Parent.Base().FullName
		}
		if mod := model.ModuleOf(obj); mod != nil {
			sym.FilePath = mod.Path
		}
		if cls, ok := obj.(*model.Class); ok {
			sym.IsInterface = cls.IsInterface
			sym.ImplementsOnly = cls.ImplementsOnly
			snap.addClass(cls)
		}
		snap.Symbols = append(snap.Symbols, sym)
	}

	for _, w := range sys.Warnings() {
		snap.Warnings = append(snap.Warnings, Warning{Message: w.Message, Detail: w.Detail})
	}
	return snap
}

func (snap *Snapshot) addClass(cls *model.Class) {
	for i, name := range cls.Bases {
		snap.Bases = append(snap.Bases, Base{ClassName: cls.FullName, Position: i, BaseName: name})
	}
	for i, iface := range cls.ImplementsDirectly.Items() {
		snap.Implementations = append(snap.Implementations, Implementation{
			ClassName: cls.FullName, Interface: iface, Kind: KindDirect, Position: i,
		})
	}
	for i, iface := range cls.ImplementsIndirectly.Items() {
		snap.Implementations = append(snap.Implementations, Implementation{
			ClassName: cls.FullName, Interface: iface, Kind: KindIndirect, Position: i,
		})
	}
	for i, name := range cls.ImplementedByDirectly.Items() {
		snap.Implementers = append(snap.Implementers, Implementer{
			InterfaceName: cls.FullName, ClassName: name, Kind: KindDirect, Position: i,
		})
	}
	for i, name := range cls.ImplementedByIndirectly.Items() {
		snap.Implementers = append(snap.Implementers, Implementer{
			InterfaceName: cls.FullName, ClassName: name, Kind: KindIndirect, Position: i,
		})
	}
}
