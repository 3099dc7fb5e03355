package datastores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// contactsSchema describes the file: an object mapping ids to contact records.
const contactsSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"name":    {"type": "string"},
			"address": {"type": "string"},
			"phone":   {"type": "string"}
		},
		"required": ["name", "address", "phone"]
	}
}`

var compiledContactsSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(contactsSchema))
})

type contactRecord struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// ParseError reports a contacts file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return "store: parse " + e.Path + ": " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Load replaces the contents of s with the contacts read from the file at path.
// Errors wrap [fs.ErrNotExist] when the file is missing and are a [*ParseError]
// when it is malformed; s is left untouched in both cases.
// An empty file is read as no contacts.
func (s *ContactsInmem) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: load: %w", err)
	}
	contacts, err := decodeContacts(b)
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(contacts)
	return nil
}

// Save writes every contact of s to the file at path, replacing it.
// The file is written next to path then renamed, so readers see either the
// previous snapshot or the new one.
func (s *ContactsInmem) Save(path string) error {
	s.mu.Lock()
	contacts := s.snapshot()
	s.mu.Unlock()

	b, err := encodeContacts(contacts)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", path, err)
	}
	if err := writeFileAtomic(path, b); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

func decodeContacts(b []byte) ([]*Contact, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}

	schema, err := compiledContactsSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}

	// The schema was checked above; walk the tokens to keep the file order.
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var contacts []*Contact
	seen := make(map[ContactID]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var id ContactID
		if err := id.UnmarshalText([]byte(key)); err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", key, err)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate id %q", key)
		}
		seen[id] = struct{}{}

		var rec contactRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("contact %q: %w", key, err)
		}
		contacts = append(contacts, &Contact{ID: id, Name: rec.Name, Address: rec.Address, Phone: rec.Phone})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after contacts")
	}
	return contacts, nil
}

func encodeContacts(contacts []*Contact) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range contacts {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.ID.String())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(contactRecord{Name: c.Name, Address: c.Address, Phone: c.Phone})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeFileAtomic(path string, b []byte) (err error) {
	perm := fs.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(b); err != nil {
		return err
	}
	if err = f.Chmod(perm); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ContactsFile implements [ContactsStore] with a [ContactsInmem] that is saved
// to a file after every mutation. When the save fails the mutation is kept in
// memory and the error is returned; the next successful save persists it.
type ContactsFile struct {
	*ContactsInmem

	mu   sync.Mutex // held across a mutation and its save
	path string
}

var _ ContactsStore = (*ContactsFile)(nil)

// OpenContactsFile loads the contacts file at path.
// A missing file is created with no contacts; a malformed one is reported as a
// [*ParseError] and left as is.
func OpenContactsFile(path string) (*ContactsFile, error) {
	s := &ContactsFile{ContactsInmem: NewContactsInmem(), path: path}
	err := s.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		if err := s.Save(path); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return s, nil
}

func (s *ContactsFile) Path() string { return s.path }

func (s *ContactsFile) Create(ctx context.Context, c *Contact) (ContactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.ContactsInmem.Create(ctx, c)
	if err != nil {
		return id, err
	}
	return id, s.Save(s.path)
}

func (s *ContactsFile) Update(ctx context.Context, id ContactID, c *Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ContactsInmem.Update(ctx, id, c); err != nil {
		return err
	}
	return s.Save(s.path)
}

func (s *ContactsFile) Delete(ctx context.Context, id ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ContactsInmem.Delete(ctx, id); err != nil {
		return err
	}
	return s.Save(s.path)
}
