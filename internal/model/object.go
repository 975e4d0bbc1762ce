package model

// Kind classifies a documentable object.
type Kind string

const (
	KindPackage   Kind = "package"
	KindModule    Kind = "module"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindAttribute Kind = "attribute"
)

// Documentable is any object in the symbol tree.
type Documentable interface {
	Base() *Object
}

// Object holds the fields shared by every documentable object.
type Object struct {
	Name      string
	FullName  string
	Kind      Kind
	Docstring string
	Line      int
	Parent    Documentable
	Contents  []Documentable

	// names maps local names visible in this scope (children, imports) to
	// fully-qualified names.
	names map[string]string
}

// Base returns o itself; it lets embedding types satisfy Documentable.
func (o *Object) Base() *Object { return o }

// Bind records that local name refers to fullName inside this scope.
func (o *Object) Bind(name, fullName string) {
	if o.names == nil {
		o.names = make(map[string]string)
	}
	o.names[name] = fullName
}

// Binding returns the fully-qualified name bound to a local name.
func (o *Object) Binding(name string) (string, bool) {
	full, ok := o.names[name]
	return full, ok
}

// Child returns the direct child with the given name, if any.
func (o *Object) Child(name string) (Documentable, bool) {
	for _, c := range o.Contents {
		if c.Base().Name == name {
			return c, true
		}
	}
	return nil, false
}

func (o *Object) addChild(child Documentable) {
	o.Contents = append(o.Contents, child)
	o.Bind(child.Base().Name, child.Base().FullName)
}

func newObject(kind Kind, name string, parent Documentable) Object {
	full := name
	if parent != nil {
		full = parent.Base().FullName + "." + name
	}
	return Object{Name: name, FullName: full, Kind: kind, Parent: parent}
}

// Module is a Python module or package. Packages carry the contents of
// their __init__ module.
type Module struct {
	Object
	Path string
}

// IsPackage reports whether m is a package.
func (m *Module) IsPackage() bool { return m.Kind == KindPackage }

// Function is a function or method. Bodies are not analyzed.
type Function struct {
	Object
}

// Attribute is an interface attribute declared with zope.interface.Attribute.
// It is created once and never mutated afterwards.
type Attribute struct {
	Object
}

// Class is a class definition enriched with zope.interface information.
type Class struct {
	Object

	// Bases are the fully-qualified names of the declared base classes.
	// BaseObjects is parallel to Bases; a nil entry marks a base that
	// could not be found in the registry.
	Bases       []string
	BaseObjects []*Class
	Subclasses  []*Class

	IsInterface    bool
	ImplementsOnly bool

	ImplementsDirectly   *OrderedSet
	ImplementsIndirectly *OrderedSet

	// Nil until the class is recognized as an interface.
	ImplementedByDirectly   *OrderedSet
	ImplementedByIndirectly *OrderedSet
}

// AddSubclass records sub as a subclass of c. Reports whether it was new.
func (c *Class) AddSubclass(sub *Class) bool {
	for _, existing := range c.Subclasses {
		if existing == sub {
			return false
		}
	}
	c.Subclasses = append(c.Subclasses, sub)
	return true
}

// FullyResolved reports whether every base class was found in the registry.
func (c *Class) FullyResolved() bool {
	for _, b := range c.BaseObjects {
		if b == nil {
			return false
		}
	}
	return true
}

// RootOfKnownHierarchy reports whether none of the bases were found in the
// registry, so c is the topmost class known to the analysis.
func (c *Class) RootOfKnownHierarchy() bool {
	for _, b := range c.BaseObjects {
		if b != nil {
			return false
		}
	}
	return true
}

// DeclareImplements records interfaces declared by c itself. The only form
// replaces what was declared before.
func (c *Class) DeclareImplements(interfaces []string, only bool) {
	if only {
		c.ImplementsOnly = true
		c.ImplementsDirectly.Reset()
	}
	c.ImplementsDirectly.Extend(interfaces...)
}

// MarkInterface flags c as an interface. Existing reverse indices are kept.
func (c *Class) MarkInterface() {
	c.IsInterface = true
	c.Kind = KindInterface
	c.EnsureReverseIndex()
}

// EnsureReverseIndex makes both implemented-by sets present. Reports whether
// either of them was missing.
func (c *Class) EnsureReverseIndex() bool {
	missing := false
	if c.ImplementedByDirectly == nil {
		c.ImplementedByDirectly = NewOrderedSet()
		missing = true
	}
	if c.ImplementedByIndirectly == nil {
		c.ImplementedByIndirectly = NewOrderedSet()
		missing = true
	}
	return missing
}

// NewModule creates a module or package named name under parent (nil for a
// top-level module). It is not registered.
func NewModule(name string, parent Documentable, isPackage bool, path string) *Module {
	kind := KindModule
	if isPackage {
		kind = KindPackage
	}
	return &Module{Object: newObject(kind, name, parent), Path: path}
}

// NewClass creates a class under parent. It is not registered.
func NewClass(name string, parent Documentable) *Class {
	return &Class{
		Object:               newObject(KindClass, name, parent),
		ImplementsDirectly:   NewOrderedSet(),
		ImplementsIndirectly: NewOrderedSet(),
	}
}

// NewFunction creates a function under parent; functions nested in a class
// are methods. It is not registered.
func NewFunction(name string, parent Documentable) *Function {
	kind := KindFunction
	if _, ok := parent.(*Class); ok {
		kind = KindMethod
	}
	return &Function{Object: newObject(kind, name, parent)}
}

// NewAttribute creates an interface attribute under parent. It is not registered.
func NewAttribute(name string, parent Documentable) *Attribute {
	return &Attribute{Object: newObject(KindAttribute, name, parent)}
}

// ModuleOf returns the innermost module or package enclosing d (d itself if
// it is one).
func ModuleOf(d Documentable) *Module {
	for d != nil {
		if m, ok := d.(*Module); ok {
			return m
		}
		d = d.Base().Parent
	}
	return nil
}
