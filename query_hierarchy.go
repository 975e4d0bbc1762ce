package zopescan

import (
	"fmt"
)

// Hierarchy is a class's position in the analyzed inheritance graph.
type Hierarchy struct {
	Class       *Symbol
	Bases       []*Base   // declared bases, in order
	Ancestors   []string  // every base above the class, nearest first
	Subclasses  []*Symbol // classes naming the class as a direct base
	Descendants []*Symbol // every class below it
}

// Subclasses returns the classes naming class as a direct base.
func (q *QueryBuilder) Subclasses(class string) ([]*Symbol, error) {
	syms, err := q.store.Subclasses(class)
	if err != nil {
		return nil, fmt.Errorf("subclasses: %w", err)
	}
	return syms, nil
}

// Hierarchy returns the bases and subclasses of class at every depth.
// Returns nil with no error if class was not analyzed.
func (q *QueryBuilder) Hierarchy(class string) (*Hierarchy, error) {
	sym, err := q.store.SymbolByName(class)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	if sym == nil {
		return nil, nil
	}

	bases, err := q.store.BasesOf(sym.ID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: bases: %w", err)
	}
	ancestors, err := q.store.Ancestors(class)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: ancestors: %w", err)
	}
	subs, err := q.store.Subclasses(class)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: subclasses: %w", err)
	}
	desc, err := q.store.Descendants(class)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: descendants: %w", err)
	}

	return &Hierarchy{
		Class:       sym,
		Bases:       bases,
		Ancestors:   ancestors,
		Subclasses:  subs,
		Descendants: desc,
	}, nil
}
