package rdl

import (
	"fmt"
	"slices"
)

// TraceSet maps (geometry, part) pairs to assignment ids. The table lives
// in the parallel "geometries" and "parts" attributes; an assignment id
// is the row index and never changes until the table is cleared.
type TraceSet struct{ *SceneObject }

type assignmentKey struct {
	geo  *SceneObject
	part string
}

// assignmentIndex caches the lookups of a TraceSet or Layer table. It is
// rebuilt on demand after any write to the object.
type assignmentIndex struct {
	byKey  map[assignmentKey]int
	byGeom map[*SceneObject][]int
	rows   int
}

func (ix *assignmentIndex) add(geo *SceneObject, part string, id int) {
	if geo != nil {
		k := assignmentKey{geo, part}
		if _, dup := ix.byKey[k]; !dup {
			ix.byKey[k] = id
			ix.byGeom[geo] = append(ix.byGeom[geo], id)
		}
	}
	if id >= ix.rows {
		ix.rows = id + 1
	}
}

// assignments returns the table index, building it if needed. Rows past
// the shorter of the two columns are ignored.
func (t *TraceSet) assignments() *assignmentIndex {
	if t.index != nil {
		return t.index
	}
	geos, parts := t.rawObjects(attrGeometries), t.rawStrings(attrParts)
	n := min(len(geos), len(parts))
	ix := &assignmentIndex{
		byKey:  make(map[assignmentKey]int, n),
		byGeom: make(map[*SceneObject][]int),
	}
	for i := range n {
		ix.add(geos[i], parts[i], i)
	}
	ix.rows = n
	t.index = ix
	return ix
}

// Assign returns the id of (geo, part), adding a row if the pair is new.
func (t *TraceSet) Assign(geo *Geometry, part string) (int, error) {
	id, _, err := t.assign(viewObject(geo), part)
	return id, err
}

// assign reports whether a row was added.
func (t *TraceSet) assign(geo *SceneObject, part string) (int, bool, error) {
	ga, gs, err := t.lookup(attrGeometries)
	if err != nil {
		return -1, false, err
	}
	_, ps, err := t.lookup(attrParts)
	if err != nil {
		return -1, false, err
	}
	if geo == nil {
		return -1, false, fmt.Errorf("%w: cannot assign a null geometry in %s", ErrTypeMismatch, t.name)
	}
	if err := t.checkRef(ga, geo); err != nil {
		return -1, false, err
	}
	ix := t.assignments()
	if id, ok := ix.byKey[assignmentKey{geo, part}]; ok {
		return id, false, nil
	}

	guard := t.UpdateGuard()
	defer guard.Close()
	id := ix.rows
	gv, pv := &gs.values[TimestepBegin], &ps.values[TimestepBegin]
	gv.objs = append(slices.Clone(gv.objs[:id]), geo)
	pv.strs = append(slices.Clone(pv.strs[:id]), part)
	gs.changed, ps.changed = true, true
	t.dirty = true
	ix.add(geo, part, id)
	t.index = ix
	return id, true, nil
}

// AssignmentID returns the id of (geo, part), or -1 if it was never
// assigned.
func (t *TraceSet) AssignmentID(geo *Geometry, part string) int {
	g := viewObject(geo)
	if g == nil {
		return -1
	}
	if id, ok := t.assignments().byKey[assignmentKey{g, part}]; ok {
		return id
	}
	return -1
}

// LookupGeomAndPart returns the pair behind an id. The geometry is nil
// for an unknown id or a removed geometry.
func (t *TraceSet) LookupGeomAndPart(id int) (*Geometry, string) {
	if id < 0 || id >= t.assignments().rows {
		return nil, ""
	}
	geo, _ := t.rawObjects(attrGeometries)[id].AsGeometry()
	return geo, t.rawStrings(attrParts)[id]
}

// Contains reports whether geo has at least one assignment.
func (t *TraceSet) Contains(geo *Geometry) bool {
	return len(t.assignments().byGeom[viewObject(geo)]) > 0
}

// AssignmentIDs returns every id assigned to geo, across all parts, in
// ascending order.
func (t *TraceSet) AssignmentIDs(geo *Geometry) []int {
	return slices.Clone(t.assignments().byGeom[viewObject(geo)])
}

// AssignmentCount is the number of rows, including rows whose geometry
// was removed.
func (t *TraceSet) AssignmentCount() int { return t.assignments().rows }

// Clear empties the table. Ids restart at zero.
func (t *TraceSet) Clear() { t.clearMembers(attrGeometries, attrParts) }
