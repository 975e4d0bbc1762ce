package zopescan

import (
	"github.com/jward/zopescan/internal/model"
	"github.com/jward/zopescan/internal/store"
)

// Public type aliases for the internal types used in the Engine and
// QueryBuilder API.

type Store = store.Store
type Symbol = store.Symbol
type File = store.File
type Base = store.Base
type Warning = store.Warning

type System = model.System
type Class = model.Class
type Kind = model.Kind

// Symbol kinds.
const (
	KindPackage   = model.KindPackage
	KindModule    = model.KindModule
	KindClass     = model.KindClass
	KindInterface = model.KindInterface
	KindFunction  = model.KindFunction
	KindMethod    = model.KindMethod
	KindAttribute = model.KindAttribute
)
