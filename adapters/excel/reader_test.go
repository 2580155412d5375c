package excel

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"
	"testing"

	"qareport/domain/core"
	"qareport/domain/table"
	"qareport/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected table.Format
		wantErr  bool
	}{
		{"results.csv", table.FormatCSV, false},
		{"RESULTS.CSV", table.FormatCSV, false},
		{"book.xlsx", table.FormatXLSX, false},
		{"notes.txt", "", true},
		{"book.xls", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			format, err := DetectFormat(tt.filename)
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.CodeUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestIngest_CSV(t *testing.T) {
	src := "Status,Score,Date\nPass,3,45292\nPass,4,2024-01-02\nFail,,\n"

	tbl, err := Ingest("results.csv", strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "results.csv", tbl.SourceName)
	assert.Equal(t, table.FormatCSV, tbl.Format)
	assert.Equal(t, []string{"Status", "Score", "Date"}, tbl.Schema)
	require.Equal(t, 3, tbl.Len())

	assert.Equal(t, "Pass", tbl.Rows[0].Display("Status"))
	assert.True(t, tbl.Rows[0].Canonical("Score").IsNumeric())
	assert.Equal(t, "01/01/2024", tbl.Rows[0].Display("Date"))
	assert.Equal(t, "01/02/2024", tbl.Rows[1].Display("Date"))
	assert.Equal(t, table.UndefinedLabel, tbl.Rows[2].Display("Score"))
	assert.True(t, tbl.Rows[2].Raw("Score").IsMissing())
	assert.Equal(t, core.Hash(fmt.Sprintf("%x", sha256.Sum256([]byte(src)))), tbl.Fingerprint)
}

func TestIngest_CSVStripsByteOrderMark(t *testing.T) {
	tbl, err := Ingest("bom.csv", strings.NewReader("\ufeffStatus\nPass\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Status"}, tbl.Schema)
}

func TestIngest_CSVHeaders(t *testing.T) {
	tbl, err := Ingest("headers.csv", strings.NewReader(",A,A, B \n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"__EMPTY", "A", "A_1", "B"}, tbl.Schema)
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		code     string
	}{
		{"unsupported extension", "notes.txt", "a,b\n1,2\n", errors.CodeUnsupportedFormat},
		{"empty file", "empty.csv", "", errors.CodeEmptyData},
		{"header only", "header.csv", "Status,Score\n", errors.CodeEmptyData},
		{"unterminated quote", "quote.csv", "a,b\n\"open,1\n", errors.CodeMalformedRow},
		{"ragged row", "ragged.csv", "a,b\n1,2\n3\n", errors.CodeMalformedRow},
		{"corrupt workbook", "broken.xlsx", "not a zip archive", errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Ingest(tt.filename, strings.NewReader(tt.content))
			assert.Nil(t, tbl)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestUniqueHeaders(t *testing.T) {
	assert.Equal(t,
		[]string{"__EMPTY", "__EMPTY_1", "x", "x_1", "x_2"},
		uniqueHeaders([]string{"", " ", "x", "x", "x"}))
	assert.Equal(t,
		[]string{"a_1", "a", "a_2"},
		uniqueHeaders([]string{"a_1", "a", "a"}))
}

func buildWorkbook(t *testing.T, fill func(f *excelize.File, sheet string)) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	fill(f, sheet)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestIngest_XLSX(t *testing.T) {
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Status", "Score", "Done"}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{45292, "Pass", 3, true}))
		require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{45293, "Fail", 15000, false}))

		style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle(sheet, "A2", "A4", style))
	})

	tbl, err := Ingest("book.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, table.FormatXLSX, tbl.Format)
	assert.Equal(t, []string{"Date", "Status", "Score", "Done"}, tbl.Schema)
	require.Equal(t, 2, tbl.Len(), "blank row 3 is skipped")

	first := tbl.Rows[0]
	assert.True(t, first.Raw("Date").IsTimestamp())
	assert.Equal(t, "01/01/2024", first.Display("Date"))
	assert.Equal(t, "Pass", first.Display("Status"))
	assert.Equal(t, "3", first.Display("Score"))
	assert.True(t, first.Raw("Done").IsBoolean())

	second := tbl.Rows[1]
	assert.Equal(t, "01/02/2024", second.Display("Date"))
	assert.Equal(t, "Fail", second.Display("Status"))
	// an unformatted number above the serial threshold is still read as a date
	assert.Equal(t, "01/24/1941", second.Display("Score"))
}

func TestIngest_XLSXReadsFirstSheetOnly(t *testing.T) {
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Status", "Owner"}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Pass", "ana"}))

		_, err := f.NewSheet("Other")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Other", "A1", &[]interface{}{"Module", "Duration", "Ticket"}))
		require.NoError(t, f.SetSheetRow("Other", "A2", &[]interface{}{"billing", 12, "QA-1"}))
		require.NoError(t, f.SetSheetRow("Other", "A3", &[]interface{}{"search", 7, "QA-2"}))
	})

	tbl, err := Ingest("two-sheets.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"Status", "Owner"}, tbl.Schema)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Pass", tbl.Rows[0].Display("Status"))
	assert.Equal(t, "ana", tbl.Rows[0].Display("Owner"))
	assert.False(t, tbl.HasColumn("Module"))
}

func TestIngest_XLSXHeadersUseDisplayedText(t *testing.T) {
	var wantDate, wantNumber string
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{45292, 2024, "Status"}))
		require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, 2, "Pass"}))

		dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle(sheet, "A1", "A1", dateStyle))
		numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle(sheet, "B1", "B1", numberStyle))

		wantDate, err = f.GetCellValue(sheet, "A1")
		require.NoError(t, err)
		wantNumber, err = f.GetCellValue(sheet, "B1")
		require.NoError(t, err)
	})

	tbl, err := Ingest("formatted-headers.xlsx", buf)
	require.NoError(t, err)

	assert.NotEqual(t, "45292", wantDate)
	assert.Equal(t, "2024.00", wantNumber)
	assert.Equal(t, []string{wantDate, wantNumber, "Status"}, tbl.Schema)
	assert.Equal(t, "Pass", tbl.Rows[0].Display("Status"))
}

func TestIngest_XLSXWithoutRows(t *testing.T) {
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A1", "Status"))
	})

	_, err := Ingest("header.xlsx", buf)
	assert.True(t, errors.IsCode(err, errors.CodeEmptyData))
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"mm/dd/yyyy", true},
		{"d-mmm-yy", true},
		{"mmm yyyy", true},
		{"[$-409]mmmm d, yyyy", true},
		{"h:mm:ss", false},
		{"[h]:mm", false},
		{"0.00", false},
		{`"day "0`, false},
		{"#,##0", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, isDateFormatCode(tt.code))
		})
	}
}
