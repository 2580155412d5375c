package excel

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"qareport/domain/table"
	"qareport/internal/errors"

	"github.com/xuri/excelize/v2"
)

// builtInDateFormats are the built-in number format ids that display dates
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// formatLiterals strips quoted text, escapes, and [color]/[$-409] sections from a number format
var formatLiterals = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)

// elapsedTime matches [h], [mm], [ss] duration formats
var elapsedTime = regexp.MustCompile(`(?i)\[(h+|m+|s+)\]`)

// readXLSX reads the first worksheet; the first row supplies the column names
func (r *DataReader) readXLSX(src io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open XLSX workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &table.Table{}, nil
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	if len(rows) == 0 {
		return &table.Table{}, nil
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	headerRow, err := displayedHeaders(f, sheet, len(rows[0]), width)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read header row of sheet %s", sheet)
	}
	headers := uniqueHeaders(headerRow)

	cells := newCellDecoder(f, sheet, r.config.Use1904Dates)
	t := &table.Table{Schema: headers}
	for i := 1; i < len(rows); i++ {
		values := make(map[string]table.Value, len(headers))
		blank := true
		for j, raw := range rows[i] {
			if raw == "" {
				continue
			}
			v, err := cells.decode(j+1, i+1, raw)
			if err != nil {
				return nil, errors.MalformedRow(i+1, err)
			}
			if v.IsMissing() {
				continue
			}
			values[headers[j]] = v
			blank = false
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, table.NewRow(values))
	}
	return t, nil
}

// displayedHeaders reads row 1 as the sheet displays it, so a date or number
// formatted header keeps its visible text instead of the raw serial
func displayedHeaders(f *excelize.File, sheet string, n, width int) ([]string, error) {
	headers := make([]string, width)
	for j := 0; j < n; j++ {
		ref, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return nil, err
		}
		if headers[j], err = f.GetCellValue(sheet, ref); err != nil {
			return nil, err
		}
	}
	return headers, nil
}

// cellDecoder types raw cell text using the cell type and its number format
type cellDecoder struct {
	f          *excelize.File
	sheet      string
	use1904    bool
	dateStyles map[int]bool
}

func newCellDecoder(f *excelize.File, sheet string, use1904 bool) *cellDecoder {
	return &cellDecoder{f: f, sheet: sheet, use1904: use1904, dateStyles: make(map[int]bool)}
}

// decode converts one non-empty raw cell at 1-based (col, row) into a Value
func (d *cellDecoder) decode(col, row int, raw string) (table.Value, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return table.Value{}, err
	}
	cellType, err := d.f.GetCellType(d.sheet, ref)
	if err != nil {
		return table.Value{}, err
	}

	switch cellType {
	case excelize.CellTypeBool:
		return table.NewBooleanValue(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return table.NewTimestampValue(t), nil
		}
		return table.NewStringValue(raw), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return table.NewStringValue(raw), nil
		}
		if d.isDateFormatted(ref) {
			t, err := excelize.ExcelDateToTime(n, d.use1904)
			if err == nil {
				return table.NewTimestampValue(t.UTC()), nil
			}
		}
		return table.NewNumericValue(n), nil
	default:
		return table.NewStringValue(raw), nil
	}
}

// isDateFormatted reports whether the cell's number format displays a date
func (d *cellDecoder) isDateFormatted(ref string) bool {
	styleID, err := d.f.GetCellStyle(d.sheet, ref)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := d.dateStyles[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := d.f.GetStyle(styleID); err == nil && style != nil {
		if builtInDateFormats[style.NumFmt] {
			isDate = true
		} else if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	d.dateStyles[styleID] = isDate
	return isDate
}

// isDateFormatCode detects day/month/year tokens in a custom number format
func isDateFormatCode(code string) bool {
	if elapsedTime.MatchString(code) {
		return false
	}
	code = strings.ToLower(formatLiterals.ReplaceAllString(code, ""))
	if strings.ContainsAny(code, "dy") {
		return true
	}
	// a lone "m" is minutes when paired with hours or seconds
	return strings.Contains(code, "m") && !strings.ContainsAny(code, "hs")
}

// parseISODate parses the ISO-8601 text stored in t="d" cells
func parseISODate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
