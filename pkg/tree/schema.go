package tree

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownType  = errors.New("unknown node type")
	ErrUnknownField = errors.New("undeclared field")
	ErrMissingField = errors.New("missing field")
)

// Category separates structural node types from context markers, the
// node types that describe how a child is used (read, write, delete)
// rather than nesting.
type Category string

const (
	CategoryNode    Category = ""
	CategoryContext Category = "context"
)

// Descriptor is the static field layout of one node type: attribute fields
// (source position metadata) first, then content fields, in declaration
// order.
type Descriptor struct {
	Name       string
	Category   Category
	Attributes []string
	Fields     []string

	all    []string
	index  map[string]int
	schema *Schema
}

// Schema returns the schema d was defined in.
func (d *Descriptor) Schema() *Schema { return d.schema }

// Names returns the attribute names followed by the content field names.
func (d *Descriptor) Names() []string { return d.all }

func (d *Descriptor) seal(s *Schema) error {
	d.all = make([]string, 0, len(d.Attributes)+len(d.Fields))
	d.all = append(d.all, d.Attributes...)
	d.all = append(d.all, d.Fields...)
	d.index = make(map[string]int, len(d.all))
	for i, name := range d.all {
		if _, dup := d.index[name]; dup {
			return fmt.Errorf("type %s: field %q declared twice", d.Name, name)
		}
		d.index[name] = i
	}
	d.schema = s
	return nil
}

// New builds a node of type d. Every declared field must be present in
// fields and nothing else may be.
func (d *Descriptor) New(fields Fields) (*Node, error) {
	values := make([]Value, len(d.all))
	for name, v := range fields {
		i, ok := d.index[name]
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", d.Name, name, ErrUnknownField)
		}
		values[i] = v
	}
	if len(fields) != len(d.all) {
		for _, name := range d.all {
			if _, ok := fields[name]; !ok {
				return nil, fmt.Errorf("%s.%s: %w", d.Name, name, ErrMissingField)
			}
		}
	}
	return &Node{desc: d, values: values}, nil
}

// Schema is a registry of node type descriptors sharing one literal style.
// It is safe for concurrent use; descriptors may be defined lazily.
type Schema struct {
	name     string
	literals LiteralStyle

	mu    sync.RWMutex
	types map[string]*Descriptor
}

func NewSchema(name string, literals LiteralStyle) *Schema {
	if literals == nil {
		literals = GoLiterals
	}
	return &Schema{
		name:     name,
		literals: literals,
		types:    make(map[string]*Descriptor),
	}
}

func (s *Schema) Name() string           { return s.name }
func (s *Schema) Literals() LiteralStyle { return s.literals }

// Define registers d. Redefining a type name is an error.
func (s *Schema) Define(d Descriptor) (*Descriptor, error) {
	switch d.Category {
	case CategoryNode, CategoryContext:
	default:
		return nil, fmt.Errorf("type %s: unknown category %q", d.Name, d.Category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[d.Name]; ok {
		return nil, fmt.Errorf("type %s already defined in schema %s", d.Name, s.name)
	}
	desc := &d
	if err := desc.seal(s); err != nil {
		return nil, err
	}
	s.types[d.Name] = desc
	return desc, nil
}

func (s *Schema) MustDefine(d Descriptor) *Descriptor {
	desc, err := s.Define(d)
	if err != nil {
		panic(err)
	}
	return desc
}

func (s *Schema) Lookup(name string) (*Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.types[name]
	return d, ok
}

// TypeNames returns every defined type name, sorted.
func (s *Schema) TypeNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// New builds a node of the named type.
func (s *Schema) New(typeName string, fields Fields) (*Node, error) {
	d, ok := s.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%s: %w in schema %s", typeName, ErrUnknownType, s.name)
	}
	return d.New(fields)
}

// MustNew is New for trees built from trusted code; it panics on error.
func (s *Schema) MustNew(typeName string, fields Fields) *Node {
	n, err := s.New(typeName, fields)
	if err != nil {
		panic(err)
	}
	return n
}
