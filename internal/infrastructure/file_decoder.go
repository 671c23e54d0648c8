package infrastructure

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"campaigndash/internal/domain"
	"campaigndash/pkg/logger"
)

var csvDelimiters = []rune{',', ';', '\t', '|'}

// spreadsheet ISO date cells, most specific first
var isoCellLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// implements domain.RowDecoder for CSV, XLSX and XLS uploads
type FileDecoder struct {
	loc    *time.Location
	logger *logger.Logger
}

// creates a new file decoder; zone-less spreadsheet dates are read in loc
func NewFileDecoder(loc *time.Location, logger *logger.Logger) *FileDecoder {
	if loc == nil {
		loc = time.Local
	}
	return &FileDecoder{loc: loc, logger: logger}
}

// Decode reads exactly one file and returns its rows keyed by the file's own header row.
func (d *FileDecoder) Decode(ctx context.Context, fileName string, r io.Reader) ([]domain.RawRow, error) {
	kind := domain.FileKindFromName(fileName)
	stage := domain.StageCSV
	if kind.IsSpreadsheet() {
		stage = domain.StageExcel
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewDecodeError(stage, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewDecodeError(stage, fmt.Errorf("failed to read file: %w", err))
	}

	var rows []domain.RawRow
	switch kind {
	case domain.FileKindXLSX:
		rows, err = d.decodeXLSX(data)
	case domain.FileKindXLS:
		rows, err = d.decodeXLS(data)
	default:
		rows, err = d.decodeCSV(data)
	}
	if err != nil {
		return nil, domain.NewDecodeError(stage, err)
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"file":  fileName,
		"kind":  kind,
		"bytes": len(data),
		"rows":  len(rows),
	}).Debug("Decoded upload")

	return rows, nil
}

// decodeCSV treats the first record as the header and skips blank lines.
func (d *FileDecoder) decodeCSV(data []byte) ([]domain.RawRow, error) {
	// strips a UTF-8 BOM and transcodes UTF-16 exports
	text, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("failed to decode text: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var header []string
	var rows []domain.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlankRecord(record) {
			continue
		}
		if header == nil {
			header = record
			continue
		}

		row := make(domain.RawRow, 0, len(header))
		for i, key := range header {
			if i >= len(record) {
				break
			}
			if strings.TrimSpace(key) == "" {
				continue
			}
			row = append(row, domain.RawField{Key: key, Value: domain.TextCell(record[i])})
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// detectDelimiter picks the candidate seen most often, outside quotes, on the first non-empty line.
func detectDelimiter(text []byte) rune {
	line := firstNonEmptyLine(text)

	counts := make(map[rune]int, len(csvDelimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := ','
	for _, delim := range csvDelimiters {
		if counts[delim] > counts[best] {
			best = delim
		}
	}
	return best
}

func firstNonEmptyLine(text []byte) string {
	for _, line := range strings.Split(string(text), "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// decodeXLSX reads the first sheet with raw cell values so that dates stay serial numbers.
func (d *FileDecoder) decodeXLSX(data []byte) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	values, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	headerIdx := -1
	for i, record := range values {
		if !isBlankRecord(record) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil
	}
	header := values[headerIdx]

	var rows []domain.RawRow
	for r := headerIdx + 1; r < len(values); r++ {
		record := values[r]
		if isBlankRecord(record) {
			continue
		}

		row := make(domain.RawRow, 0, len(header))
		for c, key := range header {
			if strings.TrimSpace(key) == "" {
				continue
			}
			raw := ""
			if c < len(record) {
				raw = record[c]
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			row = append(row, domain.RawField{Key: key, Value: d.xlsxCell(f, sheet, axis, raw)})
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// xlsxCell types a raw value from the cell's declared type.
func (d *FileDecoder) xlsxCell(f *excelize.File, sheet, axis, raw string) domain.Cell {
	if raw == "" {
		return domain.TextCell("")
	}

	cellType, err := f.GetCellType(sheet, axis)
	if err != nil {
		return domain.TextCell(raw)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula,
		excelize.CellTypeBool, excelize.CellTypeError:
		return domain.TextCell(raw)
	case excelize.CellTypeDate:
		for _, layout := range isoCellLayouts {
			if t, err := time.ParseInLocation(layout, raw, d.loc); err == nil {
				return domain.DateCell(t)
			}
		}
		return domain.TextCell(raw)
	default:
		return classifyText(raw)
	}
}

// decodeXLS reads the first worksheet of a legacy BIFF8 workbook with typed cell values.
func (d *FileDecoder) decodeXLS(data []byte) (rows []domain.RawRow, err error) {
	// the compound file reader can index past malformed sector chains
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	grid, err := readXLSWorkbook(data)
	if err != nil {
		return nil, err
	}
	return grid.rows(), nil
}

// classifyText turns a rendered spreadsheet value back into a number when it is one.
func classifyText(raw string) domain.Cell {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return domain.TextCell(raw)
	}
	return domain.NumberCell(n)
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
