package excel

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"qareport/adapters/coercer"
	"qareport/domain/core"
	"qareport/domain/table"
	"qareport/internal/errors"
	"qareport/internal/normalize"
)

// DataReader turns uploaded CSV and XLSX files into normalized tables
type DataReader struct {
	config  ReaderConfig
	coercer *coercer.TypeCoercer
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(config ReaderConfig) *DataReader {
	return &DataReader{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
	}
}

// Ingest reads a file with the default configuration
func Ingest(filename string, src io.Reader) (*table.Table, error) {
	return NewDataReader(DefaultReaderConfig()).Ingest(filename, src)
}

// DetectFormat maps a file name to a supported format by extension
func DetectFormat(filename string) (table.Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return table.FormatCSV, nil
	case ".xlsx":
		return table.FormatXLSX, nil
	default:
		return "", errors.UnsupportedFormat(filename)
	}
}

// Ingest parses the file, infers the schema, and normalizes every cell.
// Either the whole file yields a table or an error is returned.
func (r *DataReader) Ingest(filename string, src io.Reader) (*table.Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		log.Printf("[DataReader] Rejected %s: %v", filename, err)
		return nil, err
	}

	start := time.Now()
	fp := core.NewFingerprint()
	src = io.TeeReader(src, fp)

	var t *table.Table
	switch format {
	case table.FormatCSV:
		t, err = r.readCSV(src)
	case table.FormatXLSX:
		t, err = r.readXLSX(src)
	}
	if err != nil {
		log.Printf("[DataReader] FAILED reading %s file %s: %v", format, filename, err)
		return nil, err
	}

	if len(t.Rows) == 0 {
		return nil, errors.EmptyData(filename)
	}

	// drain anything the parser did not consume so the digest covers the whole upload
	if _, err := io.Copy(io.Discard, src); err != nil {
		return nil, errors.Wrap(err, "failed to read upload")
	}

	t.SourceName = filename
	t.Format = format
	t.Fingerprint = fp.Sum()
	normalize.Table(t)

	log.Printf("[DataReader] %s file %s processed in %.2fms (%d columns, %d rows, sha256 %s)",
		strings.ToUpper(string(format)), filename, float64(time.Since(start).Nanoseconds())/1e6, len(t.Schema), len(t.Rows), t.Fingerprint.Short())
	return t, nil
}

// readCSV reads delimited text; the first record supplies the column names
func (r *DataReader) readCSV(src io.Reader) (*table.Table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = 0

	headerRow, err := reader.Read()
	if err == io.EOF {
		return &table.Table{}, nil
	}
	if err != nil {
		return nil, csvError(err)
	}
	if len(headerRow) > 0 {
		headerRow[0] = strings.TrimPrefix(headerRow[0], "\ufeff")
	}
	headers := uniqueHeaders(headerRow)

	t := &table.Table{Schema: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}

		values := make(map[string]table.Value, len(headers))
		for j, cell := range record {
			values[headers[j]] = r.coercer.CoerceToken(cell)
		}
		t.Rows = append(t.Rows, table.NewRow(values))
	}
	return t, nil
}

// csvError reports parser errors as malformed rows
func csvError(err error) error {
	var parseErr *csv.ParseError
	if stderrors.As(err, &parseErr) {
		return errors.MalformedRow(parseErr.Line, parseErr.Err)
	}
	return errors.Wrap(err, "failed to read CSV file")
}

// uniqueHeaders trims header names, names blank headers __EMPTY, __EMPTY_1, ...
// and suffixes repeated names with _1, _2, ...
func uniqueHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "__EMPTY"
		}
		name := h
		if n, ok := seen[h]; ok {
			for {
				n++
				name = fmt.Sprintf("%s_%d", h, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[h] = n
		}
		seen[name] = 0
		headers[i] = name
	}
	return headers
}
