// pkg/core/types.go
package core

// EntityID identifies a tracked entity (usually a player). It is stable across frames.
type EntityID int

// Position2D is a transformed position in surface units.
// X runs along the surface length, Y along its width.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Record is the per-frame state of one entity.
// A nil Position means the entity was not localised in that frame.
type Record struct {
	Position *Position2D `json:"position,omitempty"`
}

// At returns a Record localised at (x, y).
func At(x, y float64) Record {
	return Record{Position: &Position2D{X: x, Y: y}}
}

// Missing returns a Record with no position.
func Missing() Record {
	return Record{}
}

// Frame maps each entity present in a frame to its record.
type Frame map[EntityID]Record

// Trajectory is a frame-indexed sequence of entity records. The slice index is the frame number.
type Trajectory []Frame

// Source is anything that can be scanned frame by frame.
// Implementations must not mutate the records they hand out.
type Source interface {
	Each(fn func(frame int, id EntityID, rec Record))
}

// Each visits every record in frame order. Order within a frame is unspecified.
func (t Trajectory) Each(fn func(frame int, id EntityID, rec Record)) {
	for i, frame := range t {
		for id, rec := range frame {
			fn(i, id, rec)
		}
	}
}

// Filter returns a copy of the trajectory holding only the entities accepted by f.
// Frame count is preserved.
func (t Trajectory) Filter(f EntityFilter) Trajectory {
	out := make(Trajectory, len(t))
	for i, frame := range t {
		kept := make(Frame)
		for id, rec := range frame {
			if f.Match(id) {
				kept[id] = rec
			}
		}
		out[i] = kept
	}
	return out
}

// EntityFilter restricts a query to a single entity, or lets every entity through.
// The zero value accepts all entities.
type EntityFilter struct {
	id  EntityID
	set bool
}

// AllEntities accepts every entity.
func AllEntities() EntityFilter {
	return EntityFilter{}
}

// OnlyEntity accepts samples of id only.
func OnlyEntity(id EntityID) EntityFilter {
	return EntityFilter{id: id, set: true}
}

// Match reports whether the filter accepts id.
func (f EntityFilter) Match(id EntityID) bool {
	return !f.set || f.id == id
}

// Entity returns the filtered entity and whether the filter is restricted at all.
func (f EntityFilter) Entity() (EntityID, bool) {
	return f.id, f.set
}
