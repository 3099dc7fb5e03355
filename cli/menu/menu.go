// Package menu implements the interactive address book menu.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	ds "github.com/oaiiae/contactbook/datastores"
)

const menuText = `
            Address Book
    ----------------------------
    1. View All Contacts
    2. Add New Contact
    3. Update Contact
    4. Search For Contact
    5. Delete Contact
    0. Exit Application`

// Menu reads selections from In and writes to Out until the user exits or In
// is exhausted. Store failures are reported to the user and logged; they do
// not stop the menu.
type Menu struct {
	Store  ds.ContactsStore
	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
}

type session struct {
	*Menu
	lines  <-chan line
	logger *slog.Logger
}

type line struct {
	text string
	err  error
}

// readLines scans r on its own goroutine so that a pending read does not
// hold up cancellation. The goroutine stays blocked in r until r returns.
func readLines(r io.Reader, done <-chan struct{}) <-chan line {
	lines := make(chan line)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for {
			var l line
			if sc.Scan() {
				l.text = sc.Text()
			} else if l.err = sc.Err(); l.err == nil {
				l.err = io.EOF
			}
			select {
			case lines <- l:
			case <-done:
				return
			}
			if l.err != nil {
				return
			}
		}
	}()
	return lines
}

// Run runs the menu. It returns nil on exit or end of input, and the
// context error once ctx is done, even while waiting for input.
func (m *Menu) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	s := &session{Menu: m, lines: readLines(m.In, done), logger: m.Logger}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintln(m.Out, menuText)
		choice, err := s.prompt(ctx, "> ")
		if err != nil {
			return eofAsNil(err)
		}

		switch strings.TrimSpace(choice) {
		case "0":
			return nil
		case "1":
			err = s.viewAll(ctx)
		case "2":
			err = s.add(ctx)
		case "3":
			err = s.update(ctx)
		case "4":
			err = s.search(ctx)
		case "5":
			err = s.delete(ctx)
		default:
			fmt.Fprintln(m.Out, "Please Choose A Valid Option")
		}
		if err != nil {
			return eofAsNil(err)
		}
	}
}

func eofAsNil(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// prompt writes label and reads one line. It returns [io.EOF] when input is exhausted.
func (s *session) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(s.Out, label)
	select {
	case l, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	case <-ctx.Done():
		fmt.Fprintln(s.Out)
		return "", ctx.Err()
	}
}

func (s *session) confirm(ctx context.Context, label string) (bool, error) {
	answer, err := s.prompt(ctx, label)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *session) pause(ctx context.Context) error {
	_, err := s.prompt(ctx, "Press enter to continue... ")
	return err
}

// fields prompts for the name, address and phone of a contact.
func (s *session) fields(ctx context.Context) (*ds.Contact, error) {
	var c ds.Contact
	var err error
	if c.Name, err = s.prompt(ctx, "Enter name of contact: "); err != nil {
		return nil, err
	}
	if c.Address, err = s.prompt(ctx, "Enter address of contact: "); err != nil {
		return nil, err
	}
	if c.Phone, err = s.prompt(ctx, "Enter phone # of contact: "); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *session) print(contacts ...*ds.Contact) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Address", "Phone #")
	for _, c := range contacts {
		t.Row(c.Name, c.Address, c.Phone)
	}
	fmt.Fprintln(s.Out, t.Render())
}

func (s *session) fail(ctx context.Context, msg string, err error) {
	fmt.Fprintf(s.Out, "Error: %s: %v\n", msg, err)
	s.logger.ErrorContext(ctx, msg, "err", err)
}

func (s *session) viewAll(ctx context.Context) error {
	contacts, err := s.Store.List(ctx)
	if err != nil {
		s.fail(ctx, "could not list contacts", err)
		return nil
	}
	if len(contacts) == 0 {
		fmt.Fprintln(s.Out, "The address book is empty.")
	} else {
		s.print(contacts...)
	}
	return s.pause(ctx)
}

func (s *session) add(ctx context.Context) error {
	c, err := s.fields(ctx)
	if err != nil {
		return err
	}
	s.print(c)
	ok, err := s.confirm(ctx, "Does this look right? (y/n)> ")
	if err != nil || !ok {
		return err
	}

	id, err := s.Store.Create(ctx, c)
	if err != nil {
		s.fail(ctx, "could not add contact", err)
		return nil
	}
	s.logger.DebugContext(ctx, "contact added", "id", id)
	fmt.Fprintf(s.Out, "%s has been added to contacts.\n", c.Name)
	return nil
}

// resolve finds the contact whose name matches query. It reports a
// missing contact to the user and returns nil in that case.
func (s *session) resolve(ctx context.Context, query string) *ds.Contact {
	id, err := s.Store.IDByName(ctx, query)
	if err == nil {
		var c *ds.Contact
		c, err = s.Store.Get(ctx, id)
		if err == nil {
			return c
		}
	}
	if errors.Is(err, ds.ErrObjectNotFound) {
		fmt.Fprintln(s.Out, "That contact was not found.")
	} else {
		s.fail(ctx, "could not look up contact", err)
	}
	return nil
}

func (s *session) update(ctx context.Context) error {
	query, err := s.prompt(ctx, "Enter the name of the contact you would like to update: ")
	if err != nil {
		return err
	}
	current := s.resolve(ctx, query)
	if current == nil {
		return nil
	}
	s.print(current)

	c, err := s.fields(ctx)
	if err != nil {
		return err
	}
	s.print(c)
	ok, err := s.confirm(ctx, "Does this look right? (y/n)> ")
	if err != nil || !ok {
		return err
	}

	if err := s.Store.Update(ctx, current.ID, c); err != nil {
		s.fail(ctx, "could not update contact", err)
		return nil
	}
	s.logger.DebugContext(ctx, "contact updated", "id", current.ID)
	fmt.Fprintf(s.Out, "%s has been updated.\n", c.Name)
	return s.pause(ctx)
}

func (s *session) search(ctx context.Context) error {
	query, err := s.prompt(ctx, "Enter the contact name: ")
	if err != nil {
		return err
	}
	c, err := s.Store.FindByName(ctx, query)
	switch {
	case err == nil:
		s.print(c)
	case errors.Is(err, ds.ErrObjectNotFound):
		fmt.Fprintln(s.Out, "That contact was not found.")
	default:
		s.fail(ctx, "could not search contacts", err)
	}
	return s.pause(ctx)
}

func (s *session) delete(ctx context.Context) error {
	query, err := s.prompt(ctx, "Enter the contact name: ")
	if err != nil {
		return err
	}
	c := s.resolve(ctx, query)
	if c == nil {
		return nil
	}
	s.print(c)
	ok, err := s.confirm(ctx, "Are you sure you want to delete this contact? (y/n)> ")
	if err != nil || !ok {
		return err
	}

	if err := s.Store.Delete(ctx, c.ID); err != nil {
		s.fail(ctx, "could not delete contact", err)
		return nil
	}
	s.logger.DebugContext(ctx, "contact deleted", "id", c.ID)
	fmt.Fprintln(s.Out, "Contact has been deleted.")
	return nil
}
