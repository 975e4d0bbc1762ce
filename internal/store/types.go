package store

import "time"

// Relationship kinds stored in implementations and implementers.
const (
	KindDirect   = "direct"
	KindIndirect = "indirect"
)

type File struct {
	ID          int64
	Path        string
	Module      string
	IsPackage   bool
	Hash        string
	LastIndexed time.Time
}

type Symbol struct {
	ID             int64
	FullName       string
	Name           string
	Kind           string
	Parent         string
	FileID         *int64
	FilePath       string // filled by queries; on save, links the symbol to its file
	Line           int
	Docstring      string
	IsInterface    bool
	ImplementsOnly bool
}

// Base is one declared base class. BaseID is nil when the base was not
// found among the analyzed sources.
type Base struct {
	ID        int64
	ClassID   int64
	ClassName string
	Position  int
	BaseName  string
	BaseID    *int64
}

// Implementation records that a class provides an interface, directly or by
// inheritance. Interface is a full name and may not be an analyzed symbol.
type Implementation struct {
	ID        int64
	ClassID   int64
	ClassName string
	Interface string
	Kind      string
	Position  int
}

// Implementer is an entry of an interface's implemented-by index.
type Implementer struct {
	ID            int64
	InterfaceID   int64
	InterfaceName string
	ClassName     string
	Kind          string
	Position      int
}

type Warning struct {
	ID      int64
	Message string
	Detail  string
}
