package datastores

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// ContactsInmem implements [ContactsStore].
// Contacts are kept in insertion order.
type ContactsInmem struct {
	mu       sync.Mutex
	index    map[ContactID]int
	contacts []*Contact
}

var _ ContactsStore = (*ContactsInmem)(nil)

// NewContactsInmem returns a store holding copies of cs.
// Contacts without an ID, or with an ID already taken, are given a fresh one.
func NewContactsInmem(cs ...*Contact) *ContactsInmem {
	s := &ContactsInmem{}
	s.reset(cs)
	return s
}

// reset replaces the contents of s. The caller holds s.mu or owns s exclusively.
func (s *ContactsInmem) reset(cs []*Contact) {
	s.index = make(map[ContactID]int, len(cs))
	s.contacts = make([]*Contact, 0, len(cs))
	for _, c := range cs {
		c := *c
		if _, dup := s.index[c.ID]; dup || c.ID == (ContactID{}) {
			c.ID = s.newID()
		}
		s.index[c.ID] = len(s.contacts)
		s.contacts = append(s.contacts, &c)
	}
}

func (s *ContactsInmem) newID() ContactID {
retry:
	id := newContactID()
	if _, loaded := s.index[id]; loaded {
		goto retry
	}
	return id
}

// Create stores a copy of c under a fresh ID and returns that ID. c.ID is ignored.
func (s *ContactsInmem) Create(_ context.Context, c *Contact) (ContactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *c
	stored.ID = s.newID()
	s.index[stored.ID] = len(s.contacts)
	s.contacts = append(s.contacts, &stored)
	return stored.ID, nil
}

// List returns copies of every contact in store order.
func (s *ContactsInmem) List(_ context.Context) ([]*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *ContactsInmem) snapshot() []*Contact {
	contacts := make([]*Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		c := *c
		contacts = append(contacts, &c)
	}
	return contacts
}

func (s *ContactsInmem) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contacts)
}

func (s *ContactsInmem) Get(_ context.Context, id ContactID) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	c := *s.contacts[index]
	return &c, nil
}

func (s *ContactsInmem) FindByName(_ context.Context, query string) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.indexByName(query)
	if index < 0 {
		return nil, ErrObjectNotFound
	}
	c := *s.contacts[index]
	return &c, nil
}

func (s *ContactsInmem) IDByName(_ context.Context, query string) (ContactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.indexByName(query)
	if index < 0 {
		return ContactID{}, ErrObjectNotFound
	}
	return s.contacts[index].ID, nil
}

func (s *ContactsInmem) indexByName(query string) int {
	query = strings.ToLower(query)
	return slices.IndexFunc(s.contacts, func(c *Contact) bool {
		return strings.Contains(strings.ToLower(c.Name), query)
	})
}

// Update replaces the name, address and phone of the contact with the given id.
// It never creates a contact: an unknown id yields [ErrObjectNotFound].
func (s *ContactsInmem) Update(_ context.Context, id ContactID, c *Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return ErrObjectNotFound
	}
	s.contacts[index] = &Contact{ID: id, Name: c.Name, Address: c.Address, Phone: c.Phone}
	return nil
}

// Delete removes the contact with the given id. Deleting an unknown id is a no-op.
func (s *ContactsInmem) Delete(_ context.Context, id ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil
	}
	delete(s.index, id)
	s.contacts = slices.Delete(s.contacts, index, index+1)
	for i := index; i < len(s.contacts); i++ {
		s.index[s.contacts[i].ID] = i
	}
	return nil
}
