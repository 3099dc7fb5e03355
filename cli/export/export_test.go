package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	ds "github.com/oaiiae/contactbook/datastores"
)

func contacts(t *testing.T) []*ds.Contact {
	t.Helper()
	s := ds.NewContactsInmem(
		&ds.Contact{Name: "Ada Lovelace", Address: "1 Analytical Ave", Phone: "555-0100"},
		&ds.Contact{Name: "Bob", Address: "1 Main St", Phone: "555-1111"},
	)
	cs, err := s.List(t.Context())
	require.NoError(t, err)
	return cs
}

func TestWrite_JSON(t *testing.T) {
	cs := contacts(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", cs))

	var got []record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, records(cs), got)
}

func TestWrite_YAML(t *testing.T) {
	cs := contacts(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "YAML", cs))

	var got []record
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, cs[0].ID.String(), got[0].ID)
	assert.Equal(t, "Ada Lovelace", got[0].Name)
	assert.Equal(t, "555-1111", got[1].Phone)
}

func TestWrite_XLSX(t *testing.T) {
	cs := contacts(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "xlsx", cs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Address", "Phone #"},
		{cs[0].ID.String(), "Ada Lovelace", "1 Analytical Ave", "555-0100"},
		{cs[1].ID.String(), "Bob", "1 Main St", "555-1111"},
	}, rows)
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(new(bytes.Buffer), "csv", nil)
	assert.ErrorContains(t, err, `unknown format "csv"`)
}
