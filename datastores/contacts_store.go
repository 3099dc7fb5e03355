package datastores

import (
	"context"
	_ "encoding" // for documentation links to [encoding]
	"errors"
)

type (
	// ContactID is an opaque identifier. IDs created by a store are UUIDv7
	// in [UUID] text form; IDs read from a file are kept as written.
	ContactID struct{ id string }
	Contact   struct {
		ID      ContactID
		Name    string
		Address string
		Phone   string
	}
)

func newContactID() ContactID { return ContactID{newUUID().String()} }

// ParseContactID parses the text form of a [ContactID]. Any non-empty string is an ID.
func ParseContactID(s string) (ContactID, error) {
	var id ContactID
	err := id.UnmarshalText([]byte(s))
	return id, err
}

func (id ContactID) String() string { return id.id }

// MarshalText implements [encoding.TextMarshaler].
func (id ContactID) MarshalText() ([]byte, error) { return []byte(id.id), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (id *ContactID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		return errEmptyID
	}
	id.id = string(b)
	return nil
}

// ContactsStore is implemented by [ContactsInmem] and [ContactsFile].
// Lookups by name match case-insensitively on any substring of the name and
// return the first match in store order.
type ContactsStore interface {
	Create(context.Context, *Contact) (ContactID, error)
	List(context.Context) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	FindByName(context.Context, string) (*Contact, error)
	IDByName(context.Context, string) (ContactID, error)
	Update(context.Context, ContactID, *Contact) error
	Delete(context.Context, ContactID) error
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	errEmptyID        = errors.New("empty id")
)
