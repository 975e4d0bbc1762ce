package model

import (
	"log/slog"
	"strings"
)

// Warning is a non-fatal diagnostic recorded during analysis.
type Warning struct {
	Message string
	Detail  string
}

// System is the symbol registry for one analysis run: every documentable
// object keyed by fully-qualified name, in registration order.
//
// A System is not safe for concurrent mutation. The tree walk and the
// finalization passes write to it strictly one after the other.
type System struct {
	objects map[string]Documentable
	order   []string

	warnings []Warning
	warned   map[Warning]bool

	logger *slog.Logger
}

// NewSystem creates an empty registry. Warnings are logged to logger; a nil
// logger discards them (they are still recorded).
func NewSystem(logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &System{
		objects: make(map[string]Documentable),
		warned:  make(map[Warning]bool),
		logger:  logger,
	}
}

// Logger returns the logger warnings are written to.
func (s *System) Logger() *slog.Logger { return s.logger }

// Put registers obj under its full name. Re-registering a name replaces the
// previous object but keeps its original position in iteration order.
func (s *System) Put(obj Documentable) {
	name := obj.Base().FullName
	if _, ok := s.objects[name]; !ok {
		s.order = append(s.order, name)
	}
	s.objects[name] = obj
}

// Add registers obj and attaches it to its parent's contents.
func (s *System) Add(obj Documentable) {
	if parent := obj.Base().Parent; parent != nil {
		parent.Base().addChild(obj)
	}
	s.Put(obj)
}

// Lookup returns the object registered under fullName.
func (s *System) Lookup(fullName string) (Documentable, bool) {
	obj, ok := s.objects[fullName]
	return obj, ok
}

// Class returns the class registered under fullName.
func (s *System) Class(fullName string) (*Class, bool) {
	obj, ok := s.objects[fullName]
	if !ok {
		return nil, false
	}
	cls, ok := obj.(*Class)
	return cls, ok
}

// Module returns the module or package registered under fullName.
func (s *System) Module(fullName string) (*Module, bool) {
	obj, ok := s.objects[fullName]
	if !ok {
		return nil, false
	}
	mod, ok := obj.(*Module)
	return mod, ok
}

// Len returns the number of registered objects.
func (s *System) Len() int { return len(s.order) }

// Objects returns every registered object in registration order.
func (s *System) Objects() []Documentable {
	out := make([]Documentable, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.objects[name])
	}
	return out
}

// Classes returns every registered class in registration order.
func (s *System) Classes() []*Class {
	var out []*Class
	for _, name := range s.order {
		if cls, ok := s.objects[name].(*Class); ok {
			out = append(out, cls)
		}
	}
	return out
}

// Modules returns every registered module and package in registration order.
func (s *System) Modules() []*Module {
	var out []*Module
	for _, name := range s.order {
		if mod, ok := s.objects[name].(*Module); ok {
			out = append(out, mod)
		}
	}
	return out
}

// Warn records a diagnostic and logs it. Every call is recorded, so two
// offending sites produce two warnings. Warn never fails.
func (s *System) Warn(message, detail string) {
	w := Warning{Message: message, Detail: detail}
	s.warned[w] = true
	s.warnings = append(s.warnings, w)
	s.logger.Warn(message, slog.String("detail", detail))
}

// WarnOnce is Warn for whole-program passes that may revisit the same
// object: a message/detail pair already recorded is dropped.
func (s *System) WarnOnce(message, detail string) {
	if s.warned[Warning{Message: message, Detail: detail}] {
		return
	}
	s.Warn(message, detail)
}

// Warnings returns the recorded diagnostics in the order they were raised.
func (s *System) Warnings() []Warning {
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Resolve maps a dotted name written inside ctx to a fully-qualified name.
// The first component is looked up in ctx and then in each enclosing scope
// up to and including the enclosing module. Names that are not bound
// anywhere are returned unchanged.
func (s *System) Resolve(ctx Documentable, dotted string) string {
	start, rest := dotted, ""
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		start, rest = dotted[:i], dotted[i:]
	}
	for obj := ctx; obj != nil; obj = obj.Base().Parent {
		if full, ok := obj.Base().Binding(start); ok {
			return full + rest
		}
		if _, ok := obj.(*Module); ok {
			break
		}
	}
	return dotted
}

// AddClass creates a class under parent with the given base names,
// registers it and links every base that is already known.
func (s *System) AddClass(parent Documentable, name string, bases []string) *Class {
	cls := NewClass(name, parent)
	cls.Bases = append([]string(nil), bases...)
	cls.BaseObjects = make([]*Class, len(bases))
	for i, base := range bases {
		if b, ok := s.Class(base); ok && b != cls {
			cls.BaseObjects[i] = b
			b.AddSubclass(cls)
		}
	}
	s.Add(cls)
	return cls
}

// LinkBases retries every base that was unknown when its class was defined,
// typically because the base lives in a module walked later.
func (s *System) LinkBases() {
	for _, cls := range s.Classes() {
		for i, base := range cls.Bases {
			if cls.BaseObjects[i] != nil {
				continue
			}
			if b, ok := s.Class(base); ok && b != cls {
				cls.BaseObjects[i] = b
				b.AddSubclass(cls)
			}
		}
	}
}
