package orders

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"focorders/internal"
	"focorders/internal/util"
)

const maxReportedIssues = 20

// MalformedInputError rejects a whole input table before anything is submitted.
type MalformedInputError struct {
	Source         string
	MissingColumns []string
	Issues         []string
	TotalIssues    int
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "malformed input %s", e.Source)
	if len(e.MissingColumns) > 0 {
		fmt.Fprintf(&b, ": missing columns %s", strings.Join(e.MissingColumns, ", "))
	}
	if len(e.Issues) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Issues, "; "))
		if e.TotalIssues > len(e.Issues) {
			fmt.Fprintf(&b, " (and %d more)", e.TotalIssues-len(e.Issues))
		}
	}
	return b.String()
}

// Key columns must be filled on every row; the remaining columns pass through as read.
var mandatoryCells = []string{
	internal.ColSoldToParty, internal.ColPONumber, internal.ColItem, internal.ColMaterial, internal.ColQty,
}

// Attachment is a spreadsheet found inside a mail message.
type Attachment struct {
	FileName string
	Content  []byte
}

func LoadFile(path string) ([]internal.OrderLine, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".eml") {
		atts, err := SpreadsheetAttachments(blob)
		if err != nil {
			return nil, err
		}
		if len(atts) == 0 {
			return nil, fmt.Errorf("no spreadsheet attachment in %s", path)
		}
		return LoadBytes(atts[0].FileName, atts[0].Content)
	}
	return LoadBytes(path, blob)
}

// LoadBytes picks the reader by the file name's extension.
func LoadBytes(name string, content []byte) ([]internal.OrderLine, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(name, bytes.NewReader(content))
	case ".csv":
		return loadCSV(name, bytes.NewReader(content))
	default:
		return nil, fmt.Errorf("unsupported input type: %s", name)
	}
}

func LoadXLSX(r io.Reader) ([]internal.OrderLine, error) {
	return loadXLSX("upload.xlsx", r)
}

func LoadCSV(r io.Reader) ([]internal.OrderLine, error) {
	return loadCSV("upload.csv", r)
}

func loadXLSX(source string, r io.Reader) ([]internal.OrderLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &MalformedInputError{Source: source, MissingColumns: internal.RequiredColumns}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return linesFromRows(source, rows)
}

func loadCSV(source string, r io.Reader) ([]internal.OrderLine, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		rows = append(rows, record)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return linesFromRows(source, rows)
}

func linesFromRows(source string, rows [][]string) ([]internal.OrderLine, error) {
	headerAt := -1
	for i, row := range rows {
		if !util.IsBlankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, &MalformedInputError{Source: source, MissingColumns: internal.RequiredColumns}
	}

	index, missing := resolveColumns(rows[headerAt])
	if len(missing) > 0 {
		return nil, &MalformedInputError{Source: source, MissingColumns: missing}
	}

	malformed := &MalformedInputError{Source: source}
	lines := make([]internal.OrderLine, 0, len(rows)-headerAt-1)
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if util.IsBlankRow(row) {
			continue
		}
		rowNumber := i + 1
		cell := func(col string) string {
			idx := index[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		line := internal.OrderLine{
			RowNumber:       rowNumber,
			SoldToParty:     cell(internal.ColSoldToParty),
			PONumber:        cell(internal.ColPONumber),
			Item:            cell(internal.ColItem),
			Material:        cell(internal.ColMaterial),
			Qty:             cell(internal.ColQty),
			Plant:           cell(internal.ColPlant),
			StorageLocation: cell(internal.ColStorageLocation),
			ShippingPoint:   cell(internal.ColShippingPoint),
		}
		for _, col := range mandatoryCells {
			if cell(col) == "" {
				malformed.TotalIssues++
				if len(malformed.Issues) < maxReportedIssues {
					malformed.Issues = append(malformed.Issues, fmt.Sprintf("row %d: column %s is empty", rowNumber, col))
				}
			}
		}
		lines = append(lines, line)
	}

	if malformed.TotalIssues > 0 {
		return nil, malformed
	}
	return lines, nil
}

// resolveColumns maps required column names to header positions, exact match first.
func resolveColumns(header []string) (map[string]int, []string) {
	exact := map[string]int{}
	folded := map[string]int{}
	for i, h := range header {
		name := util.NormalizeSpaces(h)
		if _, ok := exact[name]; !ok {
			exact[name] = i
		}
		key := util.ColumnKey(h)
		if _, ok := folded[key]; !ok {
			folded[key] = i
		}
	}

	index := map[string]int{}
	var missing []string
	for _, col := range internal.RequiredColumns {
		if i, ok := exact[col]; ok {
			index[col] = i
			continue
		}
		if i, ok := folded[util.ColumnKey(col)]; ok {
			index[col] = i
			continue
		}
		missing = append(missing, col)
	}
	return index, missing
}

// SpreadsheetAttachments returns the xlsx/xlsm/csv attachments of a raw RFC 822 message.
func SpreadsheetAttachments(raw []byte) ([]Attachment, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var out []Attachment
	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, part := range parts {
		name := strings.TrimSpace(part.FileName)
		if IsSpreadsheet(name) {
			out = append(out, Attachment{FileName: name, Content: part.Content})
		}
	}
	return out, nil
}

// IsSpreadsheet reports whether LoadBytes can read a file with this name.
func IsSpreadsheet(name string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}
