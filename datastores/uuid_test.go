package datastores

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_String(t *testing.T) {
	id := newUUID()

	s := id.String()
	assert.Len(t, s, 22)
	b, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Equal(t, id[:], b)
	assert.Equal(t, 7, int(uuid.UUID(id).Version()))
}

func TestNewContactID_Unique(t *testing.T) {
	seen := make(map[ContactID]struct{})
	for range 1000 {
		id := newContactID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestContactID_Opaque(t *testing.T) {
	for _, s := range []string{"contact-1", "b1f1c0de-1234-11ee-8c99-0242ac120002", "00000000-0000-0000-0000-000000000000", "é 1"} {
		id, err := ParseContactID(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, id.String())
		assert.NotEqual(t, ContactID{}, id)
	}

	_, err := ParseContactID("")
	assert.Error(t, err)
}

func TestContactID_JSON(t *testing.T) {
	id := newContactID()

	b, err := json.Marshal(struct{ ID ContactID }{id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":"`+id.String()+`"}`, string(b))

	var got struct{ ID ContactID }
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, id, got.ID)
}
