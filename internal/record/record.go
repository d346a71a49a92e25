// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package record models the data side of a map layer: a MetaModel declares
// typed attributes, and each Item of the model carries values for the
// attributes' columns.
//
// Values are held as cty.Value so that anything expressible in an HCL
// definition file (strings, lists of paths, nested objects) survives until a
// renderer decides how to interpret it.
package record

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// TypeFile is the attribute type whose values reference files below the
// configured root directory.
const TypeFile = "file"

var (
	// ErrUnknownColumn is returned when reading a column no attribute declares.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownAttribute is returned when parsing an attribute the model does not declare.
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// Attribute describes a named, typed field of a MetaModel. It is immutable
// once the model is built.
type Attribute struct {
	Name       string
	Type       string
	ColumnName string
}

// IsFile reports whether the attribute references files.
func (a *Attribute) IsFile() bool {
	return a != nil && a.Type == TypeFile
}

// Item is the read-only view of a record that renderers work with.
type Item interface {
	// ID identifies the item within its model.
	ID() string
	// Attribute looks up an attribute by name.
	Attribute(name string) (*Attribute, bool)
	// Get returns the raw value stored in a column.
	Get(column string) (cty.Value, error)
	// ParseAttribute returns the structured value of a file attribute.
	ParseAttribute(name string) (FileValue, error)
}

// MetaModel is a named schema of attributes together with its items.
type MetaModel struct {
	Name string

	attributes map[string]*Attribute
	columns    map[string]*Attribute
	items      []*MapItem
}

// NewMetaModel creates a model with the given attributes. Attribute and
// column names must be unique.
func NewMetaModel(name string, attrs ...Attribute) (*MetaModel, error) {
	m := &MetaModel{
		Name:       name,
		attributes: make(map[string]*Attribute, len(attrs)),
		columns:    make(map[string]*Attribute, len(attrs)),
	}
	for _, a := range attrs {
		a := a
		if a.ColumnName == "" {
			a.ColumnName = a.Name
		}
		if _, exists := m.attributes[a.Name]; exists {
			return nil, fmt.Errorf("metamodel '%s': attribute '%s' declared twice", name, a.Name)
		}
		if _, exists := m.columns[a.ColumnName]; exists {
			return nil, fmt.Errorf("metamodel '%s': column '%s' used by more than one attribute", name, a.ColumnName)
		}
		m.attributes[a.Name] = &a
		m.columns[a.ColumnName] = &a
	}
	return m, nil
}

// Attribute looks up an attribute by name.
func (m *MetaModel) Attribute(name string) (*Attribute, bool) {
	a, ok := m.attributes[name]
	return a, ok
}

// Attributes returns the model's attributes sorted by name.
func (m *MetaModel) Attributes() []*Attribute {
	out := make([]*Attribute, 0, len(m.attributes))
	for _, a := range m.attributes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddItem appends a new item holding values keyed by column name. Every
// key must be a declared column.
func (m *MetaModel) AddItem(id string, values map[string]cty.Value) (*MapItem, error) {
	for col := range values {
		if _, ok := m.columns[col]; !ok {
			return nil, fmt.Errorf("metamodel '%s', item '%s': %w '%s'", m.Name, id, ErrUnknownColumn, col)
		}
	}
	for _, existing := range m.items {
		if existing.id == id {
			return nil, fmt.Errorf("metamodel '%s': item '%s' declared twice", m.Name, id)
		}
	}

	copied := make(map[string]cty.Value, len(values))
	for k, v := range values {
		copied[k] = v
	}
	item := &MapItem{id: id, model: m, values: copied}
	m.items = append(m.items, item)
	return item, nil
}

// Items returns the model's items in declaration order.
func (m *MetaModel) Items() []Item {
	out := make([]Item, len(m.items))
	for i, it := range m.items {
		out[i] = it
	}
	return out
}

// MapItem is an Item backed by an in-memory map of column values.
type MapItem struct {
	id     string
	model  *MetaModel
	values map[string]cty.Value
}

var _ Item = (*MapItem)(nil)

// ID returns the item identifier.
func (i *MapItem) ID() string {
	return i.id
}

// Attribute looks up an attribute on the item's model.
func (i *MapItem) Attribute(name string) (*Attribute, bool) {
	return i.model.Attribute(name)
}

// Get returns the value stored in column. A declared column without a value
// yields a null string.
func (i *MapItem) Get(column string) (cty.Value, error) {
	if _, ok := i.model.columns[column]; !ok {
		return cty.NilVal, fmt.Errorf("item '%s': %w '%s'", i.id, ErrUnknownColumn, column)
	}
	v, ok := i.values[column]
	if !ok {
		return cty.NullVal(cty.String), nil
	}
	return v, nil
}

// ParseAttribute reads the attribute's column and interprets it as a file
// reference value.
func (i *MapItem) ParseAttribute(name string) (FileValue, error) {
	attr, ok := i.model.Attribute(name)
	if !ok {
		return FileValue{}, fmt.Errorf("item '%s': %w '%s'", i.id, ErrUnknownAttribute, name)
	}
	v, err := i.Get(attr.ColumnName)
	if err != nil {
		return FileValue{}, err
	}
	return ParseFileValue(v), nil
}
