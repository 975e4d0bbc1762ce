// Package zopescan infers zope.interface facts from Python source without
// running it: which classes are interfaces, which classes implement which
// interfaces directly or by inheritance, and the attributes interfaces
// declare.
//
// # Pipeline
//
//  1. Discover: find the importable modules under a root directory.
//  2. Parse: build tree-sitter trees in parallel.
//  3. Walk: visit every module in order, recording packages, modules,
//     classes, functions and attributes, and handling the zope idioms
//     (implements, implementsOnly, classImplements, implementer,
//     Attribute, moduleMovedForSplit).
//  4. Finalize: mark interfaces by inheritance, push declarations down
//     class hierarchies, and build each interface's implemented-by index.
//  5. Persist: write the result to SQLite in one transaction.
//
// # Usage
//
//	e, err := zopescan.New("zopescan.db", "")
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.IndexDirectory(ctx, "path/to/src", false)
//
//	q := e.Query()
//	impl, err := q.ImplementedBy("twisted.internet.interfaces.IReactorTCP")
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] answers:
//
//   - [QueryBuilder.Interfaces] lists every interface.
//   - [QueryBuilder.ImplementedBy] gives the classes implementing an interface.
//   - [QueryBuilder.Implements] gives the interfaces a class provides.
//   - [QueryBuilder.Attributes] lists declared interface attributes.
//   - [QueryBuilder.Hierarchy] places a class in the inheritance graph.
//   - [QueryBuilder.Warnings] reports what the analysis could not resolve.
//
// # Incremental Indexing
//
// [Engine.IndexDirectory] stores a digest of the discovered sources and the
// analysis settings. A later run with the same digest leaves the index
// untouched unless forced.
//
// # Scripts
//
// [Engine.RunScript] runs Risor scripts with host functions over the index.
// See the internal/runtime package for the globals exposed to scripts. The
// scripts package bundles ready-made reports; load them with
// [WithScriptsFS] and capture their "report" lines with [WithScriptOutput].
package zopescan
