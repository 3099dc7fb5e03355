// Package export writes contacts to other formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	ds "github.com/oaiiae/contactbook/datastores"
)

// Formats lists the formats accepted by [Write].
var Formats = []string{"json", "yaml", "xlsx"}

const sheet = "Contacts"

type record struct {
	ID      string `json:"id"      yaml:"id"`
	Name    string `json:"name"    yaml:"name"`
	Address string `json:"address" yaml:"address"`
	Phone   string `json:"phone"   yaml:"phone"`
}

func records(contacts []*ds.Contact) []record {
	rs := make([]record, 0, len(contacts))
	for _, c := range contacts {
		rs = append(rs, record{ID: c.ID.String(), Name: c.Name, Address: c.Address, Phone: c.Phone})
	}
	return rs
}

// Write writes contacts to w in the given format, keeping their order.
func Write(w io.Writer, format string, contacts []*ds.Contact) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(records(contacts))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2) //nolint: mnd // yaml convention
		if err := enc.Encode(records(contacts)); err != nil {
			return err
		}
		return enc.Close()
	case "xlsx":
		return writeXLSX(w, contacts)
	default:
		return fmt.Errorf("export: unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func writeXLSX(w io.Writer, contacts []*ds.Contact) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	rows := [][]any{{"ID", "Name", "Address", "Phone #"}}
	for _, r := range records(contacts) {
		rows = append(rows, []any{r.ID, r.Name, r.Address, r.Phone})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	return f.Write(w)
}
