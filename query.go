package zopescan

import (
	"fmt"

	"github.com/jward/zopescan/internal/store"
)

// QueryBuilder provides a read API over the index.
type QueryBuilder struct {
	store *store.Store
}

// Interfaces returns every class marked as an interface, by full name.
func (q *QueryBuilder) Interfaces() ([]*Symbol, error) {
	syms, err := q.store.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("interfaces: %w", err)
	}
	return syms, nil
}

// Symbol looks up a symbol by full name. Returns nil with no error if it
// does not exist.
func (q *QueryBuilder) Symbol(fullName string) (*Symbol, error) {
	sym, err := q.store.SymbolByName(fullName)
	if err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	return sym, nil
}

// Implementers is an interface's implemented-by index.
type Implementers struct {
	Interface *Symbol
	Direct    []string // classes declaring the interface themselves
	Indirect  []string // classes inheriting the declaration
}

// ImplementedBy returns the implemented-by index of iface.
// Returns nil with no error if iface was not analyzed.
func (q *QueryBuilder) ImplementedBy(iface string) (*Implementers, error) {
	sym, err := q.store.SymbolByName(iface)
	if err != nil {
		return nil, fmt.Errorf("implemented by: %w", err)
	}
	if sym == nil {
		return nil, nil
	}
	ims, err := q.store.ImplementersOf(sym.ID, "")
	if err != nil {
		return nil, fmt.Errorf("implemented by: %w", err)
	}
	res := &Implementers{Interface: sym, Direct: []string{}, Indirect: []string{}}
	for _, im := range ims {
		if im.Kind == store.KindDirect {
			res.Direct = append(res.Direct, im.ClassName)
		} else {
			res.Indirect = append(res.Indirect, im.ClassName)
		}
	}
	return res, nil
}

// Implementations lists what a class declares and inherits.
type Implementations struct {
	Class          *Symbol
	ImplementsOnly bool
	Direct         []string
	Indirect       []string
}

// Implements returns the interfaces class declares and inherits.
// Returns nil with no error if class was not analyzed.
func (q *QueryBuilder) Implements(class string) (*Implementations, error) {
	sym, err := q.store.SymbolByName(class)
	if err != nil {
		return nil, fmt.Errorf("implements: %w", err)
	}
	if sym == nil {
		return nil, nil
	}
	impls, err := q.store.ImplementationsByClass(sym.ID, "")
	if err != nil {
		return nil, fmt.Errorf("implements: %w", err)
	}
	res := &Implementations{
		Class:          sym,
		ImplementsOnly: sym.ImplementsOnly,
		Direct:         []string{},
		Indirect:       []string{},
	}
	for _, impl := range impls {
		if impl.Kind == store.KindDirect {
			res.Direct = append(res.Direct, impl.Interface)
		} else {
			res.Indirect = append(res.Indirect, impl.Interface)
		}
	}
	return res, nil
}

// Attributes returns the zope.interface.Attribute declarations made in the
// body of iface, in source order.
func (q *QueryBuilder) Attributes(iface string) ([]*Symbol, error) {
	children, err := q.store.SymbolChildren(iface)
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	var attrs []*Symbol
	for _, c := range children {
		if c.Kind == string(KindAttribute) {
			attrs = append(attrs, c)
		}
	}
	return attrs, nil
}

// Warnings returns the analysis warnings in the order they were raised.
func (q *QueryBuilder) Warnings() ([]*Warning, error) {
	ws, err := q.store.Warnings()
	if err != nil {
		return nil, fmt.Errorf("warnings: %w", err)
	}
	return ws, nil
}

// Summary describes the index as a whole.
type Summary struct {
	Root       string
	IndexedAt  string
	Files      int
	Kinds      map[string]int // symbol count per kind
	Interfaces int
	Warnings   int
}

// Summary returns counts over the whole index.
func (q *QueryBuilder) Summary() (*Summary, error) {
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	kinds, err := q.store.CountByKind()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	ifaces, err := q.store.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	ws, err := q.store.Warnings()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	root, err := q.store.Metadata(store.MetaRoot)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	indexedAt, err := q.store.Metadata(store.MetaIndexedAt)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return &Summary{
		Root:       root,
		IndexedAt:  indexedAt,
		Files:      len(files),
		Kinds:      kinds,
		Interfaces: len(ifaces),
		Warnings:   len(ws),
	}, nil
}
