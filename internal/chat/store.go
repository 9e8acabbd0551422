package chat

import "sync"

// Store is the append-only conversation log. Ids are monotonic and assigned
// at append time, so insertion order equals id order equals the order the
// user saw the turns happen.
type Store struct {
	mu     sync.Mutex
	nextID int64
	msgs   []Message
}

// NewStore returns an empty conversation log.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Append creates a message with a fresh id and inserts it at the tail.
// Messages with media but no text are marked as pure media artifacts.
func (s *Store) Append(role Role, text string, media *Media) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := KindText
	if media != nil && text == "" {
		kind = KindMediaArtifact
	}
	m := Message{ID: s.nextID, Role: role, Kind: kind, Text: text, Media: media}
	s.nextID++
	s.msgs = append(s.msgs, m)
	return m
}

// List returns the full insertion-ordered conversation. The returned slice
// is a copy; callers may re-read at any time without side effects.
func (s *Store) List() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}
