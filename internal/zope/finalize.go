package zope

import (
	"sort"
	"strings"

	"github.com/jward/zopescan/internal/model"
)

// DefaultInterfaceRoots are the classes every interface ultimately derives
// from.
var DefaultInterfaceRoots = []string{
	"zope.interface.Interface",
	"twisted.python.components.Interface",
}

// DefaultTestSegment marks full names that belong to test code. Such
// classes are not marked as interfaces by inheritance and never appear in
// reverse indices.
const DefaultTestSegment = ".test."

const componentsModule = "twisted.python.components"

type finalizeOptions struct {
	roots       []string
	testSegment string
}

// Option configures Finalize.
type Option func(*finalizeOptions)

// WithInterfaceRoots adds interface roots to DefaultInterfaceRoots.
func WithInterfaceRoots(roots ...string) Option {
	return func(o *finalizeOptions) {
		o.roots = append(o.roots, roots...)
	}
}

// WithTestSegment overrides DefaultTestSegment. An empty segment disables
// test filtering.
func WithTestSegment(segment string) Option {
	return func(o *finalizeOptions) {
		o.testSegment = segment
	}
}

// Finalize runs the whole-program passes over a completely walked System:
// base linking, seeding of the legacy Interface root, interface marking,
// propagation of inherited declarations, and the implemented-by indices.
// Running it again on the same System changes nothing.
func Finalize(sys *model.System, opts ...Option) {
	o := finalizeOptions{
		roots:       append([]string(nil), DefaultInterfaceRoots...),
		testSegment: DefaultTestSegment,
	}
	for _, opt := range opts {
		opt(&o)
	}
	f := &finalizer{sys: sys, opts: o, roots: model.NewOrderedSet(o.roots...)}

	f.seed()
	sys.LinkBases()
	f.markAll()
	f.propagateAll()
	f.reverseIndex()
}

type finalizer struct {
	sys   *model.System
	opts  finalizeOptions
	roots *model.OrderedSet
}

func (f *finalizer) isTest(fullName string) bool {
	return f.opts.testSegment != "" && strings.Contains(fullName, f.opts.testSegment)
}

// seed creates twisted.python.components.Interface when the module was
// analyzed but does not define it.
func (f *finalizer) seed() {
	mod, ok := f.sys.Module(componentsModule)
	if !ok {
		return
	}
	if _, ok := f.sys.Lookup(componentsModule + ".Interface"); ok {
		return
	}
	f.sys.AddClass(mod, "Interface", nil)
}

func (f *finalizer) markAll() {
	for _, root := range f.roots.Items() {
		if cls, ok := f.sys.Class(root); ok {
			f.mark(cls, map[*model.Class]bool{})
		}
	}
	for _, cls := range f.sys.Classes() {
		for _, base := range cls.Bases {
			if f.roots.Has(base) {
				f.mark(cls, map[*model.Class]bool{})
				break
			}
		}
	}
}

// mark flags cls and, depth first, every non-test subclass.
func (f *finalizer) mark(cls *model.Class, onPath map[*model.Class]bool) {
	if onPath[cls] {
		f.sys.WarnOnce(WarnCycle, cls.FullName)
		return
	}
	onPath[cls] = true
	defer delete(onPath, cls)

	cls.MarkInterface()
	for _, sub := range cls.Subclasses {
		if f.isTest(sub.FullName) {
			continue
		}
		f.mark(sub, onPath)
	}
}

// propagateAll pushes declarations down from the top of each hierarchy. A
// class is a starting point when it is not an interface and its bases are
// either all known or all unknown. Starting points are visited shallowest
// first so inherited entries always precede a subclass's own declarations.
func (f *finalizer) propagateAll() {
	var starts []*model.Class
	for _, cls := range f.sys.Classes() {
		if cls.IsInterface {
			continue
		}
		if !cls.FullyResolved() && !cls.RootOfKnownHierarchy() {
			continue
		}
		starts = append(starts, cls)
	}

	depths := map[*model.Class]int{}
	sort.SliceStable(starts, func(i, j int) bool {
		return depth(starts[i], depths) < depth(starts[j], depths)
	})

	for _, cls := range starts {
		f.propagate(cls, cls.ImplementsDirectly.Items(), map[*model.Class]bool{cls: true})
	}
}

// depth is the length of the longest chain of known bases above cls. A
// class met again while its own depth is being computed counts as 0.
func depth(cls *model.Class, memo map[*model.Class]int) int {
	if d, ok := memo[cls]; ok {
		return d
	}
	memo[cls] = 0
	d := 0
	for _, base := range cls.BaseObjects {
		if base == nil {
			continue
		}
		if bd := depth(base, memo) + 1; bd > d {
			d = bd
		}
	}
	memo[cls] = d
	return d
}

func (f *finalizer) propagate(node *model.Class, interfaces []string, onPath map[*model.Class]bool) {
	for _, child := range node.Subclasses {
		if onPath[child] {
			f.sys.WarnOnce(WarnCycle, child.FullName)
			continue
		}
		child.ImplementsIndirectly.Extend(interfaces...)

		var down []string
		if child.ImplementsOnly {
			child.ImplementsIndirectly.Reset()
			down = child.ImplementsDirectly.Items()
		} else {
			set := model.NewOrderedSet(interfaces...)
			set.Extend(child.ImplementsDirectly.Items()...)
			down = set.Items()
		}

		onPath[child] = true
		f.propagate(child, down, onPath)
		delete(onPath, child)
	}
}

func (f *finalizer) reverseIndex() {
	for _, cls := range f.sys.Classes() {
		for _, name := range cls.ImplementsDirectly.Items() {
			if iface := f.interfaceFor(name); iface != nil {
				iface.ImplementedByDirectly.Add(cls.FullName)
			}
		}
		for _, name := range cls.ImplementsIndirectly.Items() {
			if iface := f.interfaceFor(name); iface != nil {
				iface.ImplementedByIndirectly.Add(cls.FullName)
			}
		}
	}
}

// interfaceFor returns the class a declared interface name refers to with
// its reverse indices present, or nil when the name is unknown, test code,
// or not a class.
func (f *finalizer) interfaceFor(name string) *model.Class {
	if f.isTest(name) {
		return nil
	}
	obj, ok := f.sys.Lookup(name)
	if !ok {
		return nil
	}
	iface, ok := obj.(*model.Class)
	if !ok {
		f.sys.WarnOnce(WarnNotAClass, name)
		return nil
	}
	if iface.EnsureReverseIndex() {
		f.sys.WarnOnce(WarnUnmarkedInterface, name)
	}
	return iface
}
