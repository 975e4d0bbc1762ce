package store

// Reader is the read side of the index used by queries and scripts.
type Reader interface {
	SymbolByName(fullName string) (*Symbol, error)
	SymbolsByKind(kind string) ([]*Symbol, error)
	SymbolChildren(fullName string) ([]*Symbol, error)
	Interfaces() ([]*Symbol, error)
	BasesOf(classID int64) ([]*Base, error)
	Subclasses(fullName string) ([]*Symbol, error)
	ImplementationsByClass(classID int64, kind string) ([]*Implementation, error)
	ImplementersOf(interfaceID int64, kind string) ([]*Implementer, error)
	Warnings() ([]*Warning, error)
}

// Compile-time check: *Store satisfies Reader.
var _ Reader = (*Store)(nil)
