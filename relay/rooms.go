package relay

import "slices"

// memberSet is a set of connection IDs that remembers insertion order.
type memberSet struct {
	order []string
	index map[string]struct{}
}

func newMemberSet() *memberSet {
	return &memberSet{index: make(map[string]struct{})}
}

func (m *memberSet) add(connID string) {
	if _, ok := m.index[connID]; ok {
		return
	}
	m.index[connID] = struct{}{}
	m.order = append(m.order, connID)
}

func (m *memberSet) remove(connID string) {
	if _, ok := m.index[connID]; !ok {
		return
	}
	delete(m.index, connID)
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return id == connID })
}

func (m *memberSet) len() int {
	return len(m.order)
}

// roomIndex maps room IDs to their members. A room exists only while it
// has members; reap enforces that after every removal. Callers hold
// Manager.mu.
type roomIndex struct {
	rooms map[string]*memberSet
}

func newRoomIndex() *roomIndex {
	return &roomIndex{rooms: make(map[string]*memberSet)}
}

func (x *roomIndex) add(roomID, connID string) {
	members, ok := x.rooms[roomID]
	if !ok {
		members = newMemberSet()
		x.rooms[roomID] = members
	}
	members.add(connID)
}

func (x *roomIndex) remove(roomID, connID string) {
	if members, ok := x.rooms[roomID]; ok {
		members.remove(connID)
	}
}

// reap drops roomID if it has no members and reports whether it did.
func (x *roomIndex) reap(roomID string) bool {
	members, ok := x.rooms[roomID]
	if !ok || members.len() > 0 {
		return false
	}
	delete(x.rooms, roomID)
	return true
}

func (x *roomIndex) members(roomID string) []string {
	members, ok := x.rooms[roomID]
	if !ok {
		return nil
	}
	return slices.Clone(members.order)
}

func (x *roomIndex) count(roomID string) int {
	if members, ok := x.rooms[roomID]; ok {
		return members.len()
	}
	return 0
}

func (x *roomIndex) exists(roomID string) bool {
	_, ok := x.rooms[roomID]
	return ok
}

func (x *roomIndex) len() int {
	return len(x.rooms)
}
