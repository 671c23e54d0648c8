package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"

	"campaigndash/internal/domain"
	"campaigndash/pkg/logger"
)

func newTestDecoder() *FileDecoder {
	return NewFileDecoder(time.UTC, logger.NewDiscard())
}

func fieldValue(t *testing.T, row domain.RawRow, key string) domain.Cell {
	t.Helper()
	for _, f := range row {
		if f.Key == key {
			return f.Value
		}
	}
	t.Fatalf("key %q not found in row", key)
	return domain.Cell{}
}

func hasKey(row domain.RawRow, key string) bool {
	for _, f := range row {
		if f.Key == key {
			return true
		}
	}
	return false
}

func TestDecodeCSV_QuotedFieldsAndBlankLines(t *testing.T) {
	input := "Campaign Name,Subject,Revenue\n" +
		"\n" +
		"\"Sale, part 1\",\"He said \"\"hi\"\"\",\"1,234.50\"\n" +
		",,\n" +
		"Plain,Hello,10\n"

	rows, err := newTestDecoder().Decode(context.Background(), "export.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.TextCell("Sale, part 1"), fieldValue(t, rows[0], "Campaign Name"))
	assert.Equal(t, domain.TextCell(`He said "hi"`), fieldValue(t, rows[0], "Subject"))
	assert.Equal(t, domain.TextCell("1,234.50"), fieldValue(t, rows[0], "Revenue"))
	assert.Equal(t, domain.TextCell("Plain"), fieldValue(t, rows[1], "Campaign Name"))
}

func TestDecodeCSV_KeepsHeaderOrderAndDuplicates(t *testing.T) {
	input := "campaign name,Campaign Name\nfirst,second\n"

	rows, err := newTestDecoder().Decode(context.Background(), "dup.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.Len(t, rows[0], 2)
	assert.Equal(t, "campaign name", rows[0][0].Key)
	assert.Equal(t, "Campaign Name", rows[0][1].Key)
}

func TestDecodeCSV_ShortRowsLeaveCellsAbsent(t *testing.T) {
	input := "Campaign Name,Revenue,Open Rate\nOnly Name\nFull,1,2,extra\n"

	rows, err := newTestDecoder().Decode(context.Background(), "ragged.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Len(t, rows[0], 1)
	assert.False(t, hasKey(rows[0], "Revenue"))
	assert.Len(t, rows[1], 3)
}

func TestDecodeCSV_StripsUTF8BOM(t *testing.T) {
	input := "\xEF\xBB\xBFCampaign Name,Revenue\nA,1\n"

	rows, err := newTestDecoder().Decode(context.Background(), "bom.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Campaign Name", rows[0][0].Key)
}

func TestDecodeCSV_UTF16WithBOM(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Campaign Name\tRevenue\nA\t5\n")
	require.NoError(t, err)

	rows, err := newTestDecoder().Decode(context.Background(), "export.txt", strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, domain.TextCell("A"), fieldValue(t, rows[0], "Campaign Name"))
	assert.Equal(t, domain.TextCell("5"), fieldValue(t, rows[0], "Revenue"))
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"tab", "a\tb\tc", '\t'},
		{"pipe", "a|b|c", '|'},
		{"quoted commas ignored", "\"a,b,c\";d;e", ';'},
		{"skips leading blank lines", "\n\n a;b", ';'},
		{"defaults to comma", "single", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDelimiter([]byte(tt.in)))
		})
	}
}

func TestDecodeCSV_SemicolonDelimited(t *testing.T) {
	input := "Campaign Name;Revenue\nA;1,5\n"

	rows, err := newTestDecoder().Decode(context.Background(), "euro.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, domain.TextCell("1,5"), fieldValue(t, rows[0], "Revenue"))
}

func TestDecodeCSV_HeaderOnly(t *testing.T) {
	rows, err := newTestDecoder().Decode(context.Background(), "empty.csv", strings.NewReader("Campaign Name,Revenue\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecode_ReadErrorIsCSVStage(t *testing.T) {
	_, err := newTestDecoder().Decode(context.Background(), "export.csv", iotest.ErrReader(errors.New("disk gone")))
	require.Error(t, err)

	var decodeErr *domain.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, domain.StageCSV, decodeErr.Stage)
	assert.Contains(t, err.Error(), "CSV")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestDecode_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestDecoder().Decode(ctx, "export.csv", strings.NewReader("a\n1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeXLSX_FirstSheetWithTypedCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Campaign Name", "Send Time", "Revenue", "Campaign ID"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Spring", 45000.5, 120.25, "00123"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Summer", "2024-06-01 08:00:00", 80}))

	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := newTestDecoder().Decode(context.Background(), "Export.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.TextCell("Spring"), fieldValue(t, rows[0], "Campaign Name"))
	assert.Equal(t, domain.NumberCell(45000.5), fieldValue(t, rows[0], "Send Time"))
	assert.Equal(t, domain.NumberCell(120.25), fieldValue(t, rows[0], "Revenue"))
	assert.Equal(t, domain.TextCell("00123"), fieldValue(t, rows[0], "Campaign ID"))

	assert.Equal(t, domain.TextCell("2024-06-01 08:00:00"), fieldValue(t, rows[1], "Send Time"))
	assert.Equal(t, domain.TextCell(""), fieldValue(t, rows[1], "Campaign ID"))
}

func TestDecodeXLSX_DateCellStaysSerial(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Campaign Name"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "Send Time"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Dated"))
	require.NoError(t, f.SetCellValue(sheet, "B2", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := newTestDecoder().Decode(context.Background(), "dates.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	cell := fieldValue(t, rows[0], "Send Time")
	assert.Equal(t, domain.CellNumber, cell.Kind)
	assert.InDelta(t, 45000, cell.Number, 1e-9)
}

func TestDecodeXLSX_CorruptWorkbook(t *testing.T) {
	_, err := newTestDecoder().Decode(context.Background(), "broken.xlsx", strings.NewReader("definitely not a zip"))
	require.Error(t, err)

	var decodeErr *domain.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, domain.StageExcel, decodeErr.Stage)
	assert.Contains(t, err.Error(), "Excel")
}

func TestDecodeXLS_CorruptWorkbook(t *testing.T) {
	_, err := newTestDecoder().Decode(context.Background(), "legacy.xls", strings.NewReader("not a biff file"))
	require.Error(t, err)

	var decodeErr *domain.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, domain.StageExcel, decodeErr.Stage)
}

func TestClassifyText(t *testing.T) {
	assert.Equal(t, domain.NumberCell(12.5), classifyText("12.5"))
	assert.Equal(t, domain.NumberCell(3), classifyText(" 3 "))
	assert.Equal(t, domain.TextCell("NaN"), classifyText("NaN"))
	assert.Equal(t, domain.TextCell("Inf"), classifyText("Inf"))
	assert.Equal(t, domain.TextCell("abc"), classifyText("abc"))
}
