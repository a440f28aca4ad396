package entity

import (
	"bytes"
	"sort"
)

// Map is the data structure for maintaining entity IDs to entities
type Map map[int32]*Entity

// Add adds a new entity to EntityMap
func (em Map) Add(entity *Entity) {
	em[entity.ID] = entity
}

// Del deletes an entity from EntityMap
func (em Map) Del(id int32) {
	delete(em, id)
}

// Get returns the Entity of specified entity ID in EntityMap
func (em Map) Get(id int32) *Entity {
	return em[id]
}

// Keys return keys of the EntityMap in a slice, ascending
func (em Map) Keys() (keys []int32) {
	for eid := range em {
		keys = append(keys, eid)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return
}

// Values return values of the EntityMap in a slice
func (em Map) Values() (vals []*Entity) {
	for _, e := range em {
		vals = append(vals, e)
	}
	return
}

// Filter filter map
func (em Map) Filter(filter func(*Entity) bool) Map {
	r := Map{}
	for _, e := range em {
		if filter(e) {
			r.Add(e)
		}
	}
	return r
}

func (em Map) String() string {
	b := bytes.Buffer{}
	b.WriteString("{")
	for i, id := range em.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(em[id].String())
	}
	b.WriteString("}")
	return b.String()
}
