package export

import (
	"fmt"
	"time"
)

// Supported output formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// Column maps a row key to its printed header.
type Column struct {
	Key   string
	Label string
}

// Dataset defines tabular export content.
type Dataset struct {
	Title       string
	GeneratedAt time.Time
	Columns     []Column
	Rows        []map[string]string
}

// Renderer turns a dataset into a downloadable file.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// RendererFor returns the renderer for a format name.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (d Dataset) headers() []string {
	headers := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		headers[i] = col.Label
		if headers[i] == "" {
			headers[i] = col.Key
		}
	}
	return headers
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		record[i] = row[col.Key]
	}
	return record
}
