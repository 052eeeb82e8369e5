package graph

import (
	"fmt"

	"sys2/internal/scope"
	"sys2/internal/types"
)

type defaultKey struct {
	typ      string
	property string
}

// DefaultsTable stores typed, exception-guarded defaults keyed by
// (type, property). Several defaults may share a key with different values;
// they are consulted in insertion order.
type DefaultsTable struct {
	byKey   map[defaultKey][]*types.Default
	ordered []*types.Default
	journal *scope.Journal
}

// NewDefaultsTable creates an empty defaults table journaled by j.
func NewDefaultsTable(j *scope.Journal) *DefaultsTable {
	return &DefaultsTable{byKey: make(map[defaultKey][]*types.Default), journal: j}
}

// Define inserts a default. An empty name derives one from the key.
func (t *DefaultsTable) Define(d types.Default) error {
	if d.Type == "" || d.Property == "" || d.Value == "" {
		return types.E(types.KindParse, "default requires type, property and value")
	}
	if d.Name == "" {
		d.Name = fmt.Sprintf("%s_%s", d.Type, d.Property)
	}
	if d.Exceptions == nil {
		d.Exceptions = make(map[string]struct{})
	}
	stored := d
	key := defaultKey{typ: d.Type, property: d.Property}
	t.byKey[key] = append(t.byKey[key], &stored)
	t.ordered = append(t.ordered, &stored)
	t.journal.Record(func() {
		list := t.byKey[key]
		for i, x := range list {
			if x == &stored {
				t.byKey[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		for i, x := range t.ordered {
			if x == &stored {
				t.ordered = append(t.ordered[:i], t.ordered[i+1:]...)
				break
			}
		}
	})
	return nil
}

// ForProperty returns every default whose property matches, in insertion
// order. The kernel filters by derivable type and value.
func (t *DefaultsTable) ForProperty(property string) []*types.Default {
	var out []*types.Default
	for _, d := range t.ordered {
		if d.Property == property {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of defaults.
func (t *DefaultsTable) Len() int { return len(t.ordered) }

// Clear drops every default. Used by session reset, outside any transaction.
func (t *DefaultsTable) Clear() {
	t.byKey = make(map[defaultKey][]*types.Default)
	t.ordered = nil
}
