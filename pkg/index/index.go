// Package index maps function instances by structural identity and display
// path, and resolves find-callers queries against them.
package index

import (
	"sort"
	"strings"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

// Index is a bidirectional mapping between identities and display paths.
// It is filled by a single writer during collection and only read afterwards.
type Index struct {
	byID   map[models.ID]*models.Instance
	byPath map[string][]models.ID
}

// New creates an empty index
func New() *Index {
	return &Index{
		byID:   make(map[models.ID]*models.Instance),
		byPath: make(map[string][]models.ID),
	}
}

// Register adds an instance. If the identity is already known the existing
// instance is returned and the second result is false.
func (x *Index) Register(inst *models.Instance) (*models.Instance, bool) {
	if existing, ok := x.byID[inst.ID]; ok {
		return existing, false
	}
	if inst.Path == "" {
		inst.Path = StripTypeArgs(inst.Name)
	}
	x.byID[inst.ID] = inst
	x.byPath[inst.Path] = append(x.byPath[inst.Path], inst.ID)
	return inst, true
}

// Remove drops an instance, used when a symbol turns out to be unresolvable
func (x *Index) Remove(id models.ID) {
	inst, ok := x.byID[id]
	if !ok {
		return
	}
	delete(x.byID, id)

	ids := x.byPath[inst.Path]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(x.byPath, inst.Path)
	} else {
		x.byPath[inst.Path] = ids
	}
}

// Get returns the instance with the given identity
func (x *Index) Get(id models.ID) (*models.Instance, bool) {
	inst, ok := x.byID[id]
	return inst, ok
}

// Contains reports whether the identity is registered
func (x *Index) Contains(id models.ID) bool {
	_, ok := x.byID[id]
	return ok
}

// Lookup resolves an exact identity given as hex digits, bypassing path matching
func (x *Index) Lookup(hash string) (*models.Instance, bool) {
	id, err := ParseID(hash)
	if err != nil {
		return nil, false
	}
	return x.Get(id)
}

// Match returns every instance whose display name matches the query, in
// display order. More than one result means the query was ambiguous.
func (x *Index) Match(query string) []*models.Instance {
	var out []*models.Instance
	if strings.Contains(query, TypeArgOpen) {
		for _, inst := range x.byID {
			if Matches(query, inst.Name) {
				out = append(out, inst)
			}
		}
	} else {
		// Without type arguments all instantiations of a path match together.
		for path, ids := range x.byPath {
			if !Matches(query, path) {
				continue
			}
			for _, id := range ids {
				out = append(out, x.byID[id])
			}
		}
	}
	SortInstances(out)
	return out
}

// All returns every registered instance in display order
func (x *Index) All() []*models.Instance {
	out := make([]*models.Instance, 0, len(x.byID))
	for _, inst := range x.byID {
		out = append(out, inst)
	}
	SortInstances(out)
	return out
}

// Len returns the number of registered instances
func (x *Index) Len() int {
	return len(x.byID)
}

// SortInstances orders instances by display name, then identity.
// This is the fixed order used by every report.
func SortInstances(list []*models.Instance) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID.Less(list[j].ID)
	})
}
