package contactsimport

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dmitrijs2005/safecheck/internal/models"
)

type CSVImporter struct{}

func (CSVImporter) Import(r io.Reader) ([]models.Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows)
}
