package compiler

import (
	"fmt"
	"sort"
)

// SymbolTable maps variable names to input vector slots. A table is built
// once per compilation unit and is then shared, read-only, by every compiler
// and interpreter in that unit.
type SymbolTable struct {
	slots map[string]int
	names map[int]string
	next  int
}

// NewSymbolTable returns a table that assigns consecutive slots to the given
// names, in order. Repeated names keep their first slot.
func NewSymbolTable(names ...string) *SymbolTable {
	t := &SymbolTable{
		slots: map[string]int{},
		names: map[int]string{},
	}
	for _, name := range names {
		t.Insert(name)
	}
	return t
}

// Insert assigns the next free slot to name and returns it. If the name is
// already defined, its existing slot is returned.
func (t *SymbolTable) Insert(name string) int {
	if slot, ok := t.slots[name]; ok {
		return slot
	}
	for {
		if _, taken := t.names[t.next]; !taken {
			break
		}
		t.next++
	}
	slot := t.next
	t.slots[name] = slot
	t.names[slot] = name
	t.next++
	return slot
}

// Set binds name to an explicit slot.
func (t *SymbolTable) Set(name string, slot int) error {
	if slot < 0 {
		return fmt.Errorf("symbol %q: negative slot %d", name, slot)
	}
	if existing, ok := t.slots[name]; ok && existing != slot {
		return fmt.Errorf("symbol %q already bound to slot %d", name, existing)
	}
	if other, ok := t.names[slot]; ok && other != name {
		return fmt.Errorf("slot %d already bound to symbol %q", slot, other)
	}
	t.slots[name] = slot
	t.names[slot] = name
	return nil
}

// Lookup returns the slot bound to name.
func (t *SymbolTable) Lookup(name string) (int, bool) {
	slot, ok := t.slots[name]
	return slot, ok
}

// IsDefined reports whether name is bound.
func (t *SymbolTable) IsDefined(name string) bool {
	_, ok := t.slots[name]
	return ok
}

// NameOf returns the symbol bound to slot, for diagnostics.
func (t *SymbolTable) NameOf(slot int) (string, bool) {
	name, ok := t.names[slot]
	return name, ok
}

// Len returns the number of symbols.
func (t *SymbolTable) Len() int {
	return len(t.slots)
}

// Size returns the input vector length needed to hold every slot.
func (t *SymbolTable) Size() int {
	size := 0
	for slot := range t.names {
		size = max(size, slot+1)
	}
	return size
}

// Names returns all symbol names ordered by slot.
func (t *SymbolTable) Names() []string {
	slots := make([]int, 0, len(t.names))
	for slot := range t.names {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	names := make([]string, len(slots))
	for i, slot := range slots {
		names[i] = t.names[slot]
	}
	return names
}
