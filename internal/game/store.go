package game

import (
	"sync"

	"snapclash/pkg/utils"
)

// codeAttempts bounds how often Create retries a colliding or empty code
// before giving up, so a broken entropy source cannot spin the loop forever.
const codeAttempts = 100

// RoomStore is the authoritative table of live rooms, keyed by code. Rooms
// are never evicted; state is volatile and dies with the process.
type RoomStore struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	genCode func() string
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:   make(map[string]*Room),
		genCode: utils.GenRoomCode,
	}
}

// Create registers a room under a fresh collision-checked code.
func (s *RoomStore) Create() (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < codeAttempts; i++ {
		code := s.genCode()
		if code == "" {
			continue
		}
		if _, taken := s.rooms[code]; taken {
			continue
		}
		r := newRoom(code)
		s.rooms[code] = r
		return r, nil
	}
	return nil, ErrNoRoomCode
}

// GetOrCreate returns the room for code, registering an empty one if absent.
func (s *RoomStore) GetOrCreate(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok {
		return r
	}
	r := newRoom(code)
	s.rooms[code] = r
	return r
}

// Get looks a room up without creating it.
func (s *RoomStore) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	return r, ok
}

// Codes lists all registered room codes, for the debug listing endpoint.
func (s *RoomStore) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	return codes
}

// ConnectionRegistry is the reverse index from connection id to the rooms it
// joined, so a disconnect (which carries no room code) resolves its rooms
// without scanning the store.
type ConnectionRegistry struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{rooms: make(map[string]map[string]struct{})}
}

func (c *ConnectionRegistry) Bind(connID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.rooms[connID]
	if !ok {
		set = make(map[string]struct{})
		c.rooms[connID] = set
	}
	set[code] = struct{}{}
}

func (c *ConnectionRegistry) Unbind(connID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := c.rooms[connID]; ok {
		delete(set, code)
		if len(set) == 0 {
			delete(c.rooms, connID)
		}
	}
}

// UnbindAll clears the connection and returns the codes it was bound to.
func (c *ConnectionRegistry) UnbindAll(connID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.rooms[connID]
	delete(c.rooms, connID)
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	return codes
}

func (c *ConnectionRegistry) RoomsOf(connID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	codes := make([]string, 0, len(c.rooms[connID]))
	for code := range c.rooms[connID] {
		codes = append(codes, code)
	}
	return codes
}
