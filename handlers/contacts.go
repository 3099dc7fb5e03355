package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/contactbook/datastores"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID ds.ContactID `json:"id" readOnly:"true"`

	Name    string `json:"name"    example:"Ada Lovelace"`
	Address string `json:"address" example:"1 Analytical Ave"`
	Phone   string `json:"phone"   example:"555-0100"`
}

func newContactModel(c *ds.Contact) ContactModel {
	return ContactModel{ID: c.ID, Name: c.Name, Address: c.Address, Phone: c.Phone}
}

func (m *ContactModel) contact() *ds.Contact {
	return &ds.Contact{Name: m.Name, Address: m.Address, Phone: m.Phone}
}

// notFound maps [ds.ErrObjectNotFound] to a 404 response.
func notFound(msg string, err error) error {
	if errors.Is(err, ds.ErrObjectNotFound) {
		return huma.Error404NotFound(msg, err)
	}
	return err
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		body = append(body, newContactModel(contact))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/",
		handlerWithErrorHandler(h.create, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
		func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated },
	)
}

type ContactsCreateOutput struct {
	Body ContactModel
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body ContactModel
}) (*ContactsCreateOutput, error) {
	contact := input.Body.contact()
	id, err := h.Store.Create(ctx, contact)
	if err != nil {
		return nil, err
	}
	contact.ID = id
	return &ContactsCreateOutput{Body: newContactModel(contact)}, nil
}

func (h *Contacts) RegisterSearch(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/by-name/{name}",
		handlerWithErrorHandler(h.search, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactsGetOutput struct {
	Body ContactModel
}

func (h *Contacts) search(ctx context.Context, input *struct {
	Name string `path:"name" example:"ada" doc:"Case-insensitive part of the name, the first match is returned"`
}) (*ContactsGetOutput, error) {
	contact, err := h.Store.FindByName(ctx, input.Name)
	if err != nil {
		return nil, notFound("no contact matches name", err)
	}
	return &ContactsGetOutput{Body: newContactModel(contact)}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to get"`
}) (*ContactsGetOutput, error) {
	contact, err := h.Store.Get(ctx, input.ID)
	if err != nil {
		return nil, notFound("id not found", err)
	}
	return &ContactsGetOutput{Body: newContactModel(contact)}, nil
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{id}",
		handlerWithErrorHandler(h.put, h.ErrorHandler),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   ds.ContactID `path:"id" doc:"ID of the contact to update"`
	Body ContactModel
}) (*ContactsGetOutput, error) {
	contact := input.Body.contact()
	if err := h.Store.Update(ctx, input.ID, contact); err != nil {
		return nil, notFound("id not found", err)
	}
	contact.ID = input.ID
	return &ContactsGetOutput{Body: newContactModel(contact)}, nil
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opErrors(http.StatusInternalServerError),
	)
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to delete"`
}) (*struct{}, error) {
	return nil, h.Store.Delete(ctx, input.ID)
}
