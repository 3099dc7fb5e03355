package datastores

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// UUID is a [uuid.UUID] that uses [base64.RawURLEncoding]
// for its text form.
type UUID uuid.UUID

func newUUID() UUID { return UUID(uuid.Must(uuid.NewV7())) }

func (UUID) encoding() *base64.Encoding { return base64.RawURLEncoding }

// AppendText implements [encoding.TextAppender].
func (id UUID) AppendText(b []byte) ([]byte, error) {
	return id.encoding().AppendEncode(b, id[:]), nil
}

func (id UUID) String() string {
	b, _ := id.AppendText(nil)
	return string(b)
}
