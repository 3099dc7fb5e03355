package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ds "github.com/oaiiae/contactbook/datastores"
)

func newTestAPI(t *testing.T, h *Contacts) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	huma.AutoRegister(huma.NewGroup(api, "/contacts"), h)
	return api
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestContacts_CreateGetList(t *testing.T) {
	store := ds.NewContactsInmem()
	api := newTestAPI(t, &Contacts{Store: store})

	resp := api.Post("/contacts/", map[string]any{
		"name":    "Ada Lovelace",
		"address": "1 Analytical Ave",
		"phone":   "555-0100",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[ContactModel](t, resp.Body.Bytes())
	assert.NotEqual(t, ds.ContactID{}, created.ID)
	assert.Equal(t, "Ada Lovelace", created.Name)

	resp = api.Get("/contacts/" + created.ID.String())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, created, decode[ContactModel](t, resp.Body.Bytes()))

	resp = api.Get("/contacts/")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []ContactModel{created}, decode[[]ContactModel](t, resp.Body.Bytes()))
}

func TestContacts_ListEmpty(t *testing.T) {
	api := newTestAPI(t, &Contacts{Store: ds.NewContactsInmem()})

	resp := api.Get("/contacts/")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestContacts_Search(t *testing.T) {
	store := ds.NewContactsInmem(
		&ds.Contact{Name: "Bob"},
		&ds.Contact{Name: "Ada Lovelace", Address: "1 Analytical Ave"},
	)
	api := newTestAPI(t, &Contacts{Store: store})

	resp := api.Get("/contacts/by-name/LOVE")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "1 Analytical Ave", decode[ContactModel](t, resp.Body.Bytes()).Address)

	resp = api.Get("/contacts/by-name/zzz")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestContacts_Put(t *testing.T) {
	ctx := context.Background()
	store := ds.NewContactsInmem()
	id, err := store.Create(ctx, &ds.Contact{Name: "Bob", Address: "1 Main St", Phone: "555-1111"})
	require.NoError(t, err)
	api := newTestAPI(t, &Contacts{Store: store})

	resp := api.Put("/contacts/"+id.String(), map[string]any{
		"name":    "Bob Smith",
		"address": "2 Main St",
		"phone":   "555-2222",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	c, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &ds.Contact{ID: id, Name: "Bob Smith", Address: "2 Main St", Phone: "555-2222"}, c)
}

func TestContacts_NotFound(t *testing.T) {
	var handled []error
	store := ds.NewContactsInmem()
	api := newTestAPI(t, &Contacts{
		Store:        store,
		ErrorHandler: func(_ context.Context, err error) { handled = append(handled, err) },
	})
	unknown, err := store.Create(context.Background(), &ds.Contact{Name: "Ghost"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), unknown))

	resp := api.Get("/contacts/" + unknown.String())
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = api.Put("/contacts/"+unknown.String(), map[string]any{"name": "Ghost", "address": "", "phone": ""})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, 0, store.Len())

	require.Len(t, handled, 2)
	for _, err := range handled {
		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.GetStatus())
	}
}

func TestContacts_Delete(t *testing.T) {
	ctx := context.Background()
	store := ds.NewContactsInmem()
	id, err := store.Create(ctx, &ds.Contact{Name: "Ada"})
	require.NoError(t, err)
	api := newTestAPI(t, &Contacts{Store: store})

	resp := api.Delete("/contacts/" + id.String())
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = api.Delete("/contacts/" + id.String())
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, 0, store.Len())
}
