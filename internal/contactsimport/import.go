// Package contactsimport reads emergency contacts from CSV or XLSX files.
//
// The first row is a header. Recognised columns, case-insensitive, in any
// order: name, phone, email, relationship, sms_alerts, automated_calls.
// Only name is mandatory. Blank rows are skipped; rows are not validated
// here, the engine decides which contacts are usable.
package contactsimport

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/safecheck/internal/common"
	"github.com/dmitrijs2005/safecheck/internal/models"
)

type Importer interface {
	Import(r io.Reader) ([]models.Contact, error)
}

// Header is the column order written by templates.
var Header = []string{"name", "phone", "email", "relationship", "sms_alerts", "automated_calls"}

// ForFile picks an Importer by file extension.
func ForFile(name string) (Importer, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return CSVImporter{}, nil
	case ".xlsx":
		return XLSXImporter{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported contact file %q", common.ErrValidation, name)
	}
}

type columns map[string]int

func parseHeader(row []string) (columns, error) {
	cols := columns{}
	for i, h := range row {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := cols[key]; !dup && key != "" {
			cols[key] = i
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("%w: contact file has no name column", common.ErrValidation)
	}
	return cols, nil
}

func (c columns) get(row []string, key string) string {
	i, ok := c[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) flag(row []string, key string) bool {
	v := strings.ToLower(c.get(row, key))
	switch v {
	case "y", "yes", "on":
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// fromRows converts a header row plus data rows into contacts.
func fromRows(rows [][]string) ([]models.Contact, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: contact file is empty", common.ErrValidation)
	}
	cols, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var out []models.Contact
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, models.Contact{
			Name:                  cols.get(row, "name"),
			Phone:                 cols.get(row, "phone"),
			Email:                 cols.get(row, "email"),
			Relationship:          cols.get(row, "relationship"),
			SMSAlertsEnabled:      cols.flag(row, "sms_alerts"),
			AutomatedCallsEnabled: cols.flag(row, "automated_calls"),
		})
	}
	return out, nil
}
