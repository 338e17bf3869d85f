package services

import (
	"encoding/csv"
	"io"
)

// CSVRowReader reads contact rows from comma separated text. Rows may have
// any number of fields.
type CSVRowReader struct {
	r *csv.Reader
}

func NewCSVRowReader(src io.Reader) *CSVRowReader {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = false
	return &CSVRowReader{r: r}
}

func (c *CSVRowReader) Next() ([]string, error) {
	return c.r.Read()
}
