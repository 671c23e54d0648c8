package infrastructure

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"

	"campaigndash/internal/domain"
)

// BIFF8 record identifiers
const (
	recBOF        = 0x0809
	recEOF        = 0x000A
	recFilePass   = 0x002F
	recBoundSheet = 0x0085
	recSST        = 0x00FC
	recContinue   = 0x003C
	recLabelSST   = 0x00FD
	recLabel      = 0x0204
	recRString    = 0x00D6
	recNumber     = 0x0203
	recRK         = 0x027E
	recMulRK      = 0x00BD
	recBoolErr    = 0x0205
	recFormula    = 0x0006
	recString     = 0x0207
)

const (
	biff8Version       = 0x0600
	sheetTypeWorksheet = 0x00
)

var errNotBIFF8 = errors.New("unsupported workbook version: only Excel 97-2003 (BIFF8) files can be read")

var biffErrorCodes = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}

type biffRecord struct {
	id   uint16
	data []byte
	// CONTINUE records that extend data
	continues [][]byte
}

type xlsSheetRef struct {
	name   string
	offset int
	kind   byte
}

type xlsWorkbook struct {
	sst    []string
	sheets []xlsSheetRef
}

// xlsGrid holds typed cells by row, then column.
type xlsGrid map[int]map[int]domain.Cell

func (g xlsGrid) set(row, col int, cell domain.Cell) {
	cols, ok := g[row]
	if !ok {
		cols = make(map[int]domain.Cell)
		g[row] = cols
	}
	cols[col] = cell
}

// setAt places a cell at the row and column that open a cell record.
func (g xlsGrid) setAt(d []byte, cell domain.Cell) {
	row, col := cellPos(d)
	g.set(row, col, cell)
}

// readXLSWorkbook returns the first worksheet of a legacy workbook with raw cell values:
// numbers stay numbers whatever their display format, so date serials reach the coercers untouched.
func readXLSWorkbook(data []byte) (xlsGrid, error) {
	stream, err := readWorkbookStream(data)
	if err != nil {
		return nil, err
	}

	wb, err := parseXLSGlobals(stream)
	if err != nil {
		return nil, err
	}

	for _, ref := range wb.sheets {
		if ref.kind == sheetTypeWorksheet {
			return parseXLSSheet(stream, ref, wb.sst)
		}
	}
	return nil, errors.New("workbook has no worksheets")
}

// readWorkbookStream pulls the BIFF stream out of the OLE2 compound file.
func readWorkbookStream(data []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		if entry.Size <= 0 || entry.Size > int64(len(data)) {
			return nil, fmt.Errorf("invalid workbook stream size %d", entry.Size)
		}
		stream := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, stream); err != nil {
			return nil, fmt.Errorf("failed to read workbook stream: %w", err)
		}
		return stream, nil
	}

	return nil, errors.New("no workbook stream found")
}

// readBIFFRecords reads from offset through the next EOF record, folding CONTINUE
// records into the record they extend.
func readBIFFRecords(stream []byte, offset int) ([]biffRecord, error) {
	if offset < 0 || offset >= len(stream) {
		return nil, fmt.Errorf("record offset %d outside stream", offset)
	}

	var records []biffRecord
	for pos := offset; pos+4 <= len(stream); {
		id := binary.LittleEndian.Uint16(stream[pos:])
		size := int(binary.LittleEndian.Uint16(stream[pos+2:]))
		pos += 4
		if pos+size > len(stream) {
			return nil, fmt.Errorf("truncated record 0x%04X at offset %d", id, pos-4)
		}
		data := stream[pos : pos+size]
		pos += size

		if id == recContinue && len(records) > 0 {
			last := &records[len(records)-1]
			last.continues = append(last.continues, data)
			continue
		}

		records = append(records, biffRecord{id: id, data: data})
		if id == recEOF {
			return records, nil
		}
	}

	return nil, errors.New("missing EOF record")
}

func checkBOF(records []biffRecord) error {
	if len(records) == 0 || records[0].id != recBOF || len(records[0].data) < 2 {
		return errors.New("missing BOF record")
	}
	if binary.LittleEndian.Uint16(records[0].data) != biff8Version {
		return errNotBIFF8
	}
	return nil
}

func parseXLSGlobals(stream []byte) (*xlsWorkbook, error) {
	records, err := readBIFFRecords(stream, 0)
	if err != nil {
		return nil, err
	}
	if err := checkBOF(records); err != nil {
		return nil, err
	}

	wb := &xlsWorkbook{}
	for _, rec := range records[1:] {
		switch rec.id {
		case recFilePass:
			return nil, errors.New("workbook is password protected")
		case recBoundSheet:
			if len(rec.data) < 8 {
				return nil, errors.New("short BOUNDSHEET record")
			}
			name, err := newBIFFCursor(rec.data[6:], nil).shortString()
			if err != nil {
				return nil, fmt.Errorf("bad sheet name: %w", err)
			}
			wb.sheets = append(wb.sheets, xlsSheetRef{
				name:   name,
				offset: int(binary.LittleEndian.Uint32(rec.data)),
				kind:   rec.data[5],
			})
		case recSST:
			sst, err := parseSST(rec)
			if err != nil {
				return nil, fmt.Errorf("bad shared string table: %w", err)
			}
			wb.sst = sst
		}
	}

	return wb, nil
}

func parseSST(rec biffRecord) ([]string, error) {
	c := newBIFFCursor(rec.data, rec.continues)
	if _, err := c.u32(); err != nil {
		return nil, err
	}
	unique, err := c.u32()
	if err != nil {
		return nil, err
	}

	sst := make([]string, 0, min(int(unique), 1<<16))
	for i := uint32(0); i < unique; i++ {
		s, err := c.richString()
		if err != nil {
			return nil, err
		}
		sst = append(sst, s)
	}
	return sst, nil
}

func parseXLSSheet(stream []byte, ref xlsSheetRef, sst []string) (xlsGrid, error) {
	records, err := readBIFFRecords(stream, ref.offset)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", ref.name, err)
	}
	if err := checkBOF(records); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", ref.name, err)
	}

	grid := make(xlsGrid)
	pendingRow, pendingCol := -1, -1

	for _, rec := range records[1:] {
		d := rec.data
		if len(d) < 6 && rec.id != recString {
			continue
		}

		switch rec.id {
		case recLabelSST:
			if len(d) < 10 {
				return nil, errors.New("short LABELSST record")
			}
			idx := int(binary.LittleEndian.Uint32(d[6:]))
			if idx >= len(sst) {
				return nil, fmt.Errorf("shared string %d out of range", idx)
			}
			grid.setAt(d, domain.TextCell(sst[idx]))
		case recLabel, recRString:
			s, err := newBIFFCursor(d[6:], rec.continues).unicodeString()
			if err != nil {
				return nil, fmt.Errorf("bad LABEL record: %w", err)
			}
			grid.setAt(d, domain.TextCell(s))
		case recNumber:
			if len(d) < 14 {
				return nil, errors.New("short NUMBER record")
			}
			grid.setAt(d, domain.NumberCell(math.Float64frombits(binary.LittleEndian.Uint64(d[6:]))))
		case recRK:
			if len(d) < 10 {
				return nil, errors.New("short RK record")
			}
			grid.setAt(d, domain.NumberCell(decodeRK(binary.LittleEndian.Uint32(d[6:]))))
		case recMulRK:
			row := int(binary.LittleEndian.Uint16(d))
			first := int(binary.LittleEndian.Uint16(d[2:]))
			for i := 0; 4+i*6+6 <= len(d)-2; i++ {
				rk := binary.LittleEndian.Uint32(d[4+i*6+2:])
				grid.set(row, first+i, domain.NumberCell(decodeRK(rk)))
			}
		case recBoolErr:
			if len(d) < 8 {
				return nil, errors.New("short BOOLERR record")
			}
			grid.setAt(d, boolErrCell(d[6], d[7]))
		case recFormula:
			if len(d) < 20 {
				return nil, errors.New("short FORMULA record")
			}
			row, col := cellPos(d)
			pendingRow, pendingCol = -1, -1
			result := d[6:14]
			if result[6] != 0xFF || result[7] != 0xFF {
				grid.set(row, col, domain.NumberCell(math.Float64frombits(binary.LittleEndian.Uint64(result))))
				continue
			}
			switch result[0] {
			case 0x00:
				// the value follows in a STRING record
				pendingRow, pendingCol = row, col
			case 0x01:
				grid.set(row, col, boolErrCell(result[2], 0))
			case 0x02:
				grid.set(row, col, boolErrCell(result[2], 1))
			default:
				grid.set(row, col, domain.TextCell(""))
			}
		case recString:
			if pendingRow < 0 {
				continue
			}
			s, err := newBIFFCursor(d, rec.continues).unicodeString()
			if err != nil {
				return nil, fmt.Errorf("bad STRING record: %w", err)
			}
			grid.set(pendingRow, pendingCol, domain.TextCell(s))
			pendingRow, pendingCol = -1, -1
		}
	}

	return grid, nil
}

// rows returns the grid as header-keyed rows, mirroring the XLSX path.
func (g xlsGrid) rows() []domain.RawRow {
	indexes := make([]int, 0, len(g))
	for r := range g {
		indexes = append(indexes, r)
	}
	sort.Ints(indexes)

	var header map[int]domain.Cell
	var headerCols []int
	var rows []domain.RawRow

	for _, r := range indexes {
		cells := g[r]
		if isBlankCells(cells) {
			continue
		}
		if header == nil {
			header = cells
			for c := range cells {
				headerCols = append(headerCols, c)
			}
			sort.Ints(headerCols)
			continue
		}

		row := make(domain.RawRow, 0, len(headerCols))
		for _, c := range headerCols {
			key := header[c].String()
			if strings.TrimSpace(key) == "" {
				continue
			}
			value, ok := cells[c]
			if !ok {
				value = domain.TextCell("")
			}
			row = append(row, domain.RawField{Key: key, Value: value})
		}
		rows = append(rows, row)
	}

	return rows
}

func cellPos(d []byte) (int, int) {
	return int(binary.LittleEndian.Uint16(d)), int(binary.LittleEndian.Uint16(d[2:]))
}

func isBlankCells(cells map[int]domain.Cell) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell.String()) != "" {
			return false
		}
	}
	return true
}

// decodeRK unpacks the compressed RK number encoding.
func decodeRK(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

func boolErrCell(value, isError byte) domain.Cell {
	if isError != 0 {
		if code, ok := biffErrorCodes[value]; ok {
			return domain.TextCell(code)
		}
		return domain.TextCell("#ERROR")
	}
	if value != 0 {
		return domain.TextCell("TRUE")
	}
	return domain.TextCell("FALSE")
}

// biffCursor reads across a record and its CONTINUE segments.
type biffCursor struct {
	segs [][]byte
	seg  int
	pos  int
}

func newBIFFCursor(first []byte, rest [][]byte) *biffCursor {
	segs := make([][]byte, 0, 1+len(rest))
	segs = append(segs, first)
	return &biffCursor{segs: append(segs, rest...)}
}

// fill moves past exhausted segments and reports whether data remains.
func (c *biffCursor) fill() bool {
	for c.seg < len(c.segs) && c.pos >= len(c.segs[c.seg]) {
		c.seg++
		c.pos = 0
	}
	return c.seg < len(c.segs)
}

func (c *biffCursor) read(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if !c.fill() {
			return nil, io.ErrUnexpectedEOF
		}
		seg := c.segs[c.seg]
		take := min(n-len(out), len(seg)-c.pos)
		out = append(out, seg[c.pos:c.pos+take]...)
		c.pos += take
	}
	return out, nil
}

func (c *biffCursor) skip(n int) error {
	for n > 0 {
		if !c.fill() {
			return io.ErrUnexpectedEOF
		}
		take := min(n, len(c.segs[c.seg])-c.pos)
		c.pos += take
		n -= take
	}
	return nil
}

func (c *biffCursor) u8() (byte, error) {
	b, err := c.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *biffCursor) u16() (uint16, error) {
	b, err := c.read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *biffCursor) u32() (uint32, error) {
	b, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// chars reads n characters. A run that crosses into a CONTINUE segment resumes
// after a fresh option byte that selects the character width.
func (c *biffCursor) chars(n int, wide bool) (string, error) {
	units := make([]uint16, 0, min(n, 1<<16))
	for len(units) < n {
		if c.seg >= len(c.segs) {
			return "", io.ErrUnexpectedEOF
		}
		if c.pos >= len(c.segs[c.seg]) {
			if !c.fill() {
				return "", io.ErrUnexpectedEOF
			}
			wide = c.segs[c.seg][c.pos]&0x01 != 0
			c.pos++
			continue
		}

		seg := c.segs[c.seg]
		width := 1
		if wide {
			width = 2
		}
		avail := (len(seg) - c.pos) / width
		if avail == 0 {
			return "", io.ErrUnexpectedEOF
		}
		take := min(n-len(units), avail)
		for i := 0; i < take; i++ {
			if wide {
				units = append(units, binary.LittleEndian.Uint16(seg[c.pos:]))
			} else {
				units = append(units, uint16(seg[c.pos]))
			}
			c.pos += width
		}
	}
	return string(utf16.Decode(units)), nil
}

// unicodeString reads an XLUnicodeString: 16-bit length, option byte, characters.
func (c *biffCursor) unicodeString() (string, error) {
	cch, err := c.u16()
	if err != nil {
		return "", err
	}
	flags, err := c.u8()
	if err != nil {
		return "", err
	}
	return c.chars(int(cch), flags&0x01 != 0)
}

// shortString reads a ShortXLUnicodeString: 8-bit length, option byte, characters.
func (c *biffCursor) shortString() (string, error) {
	cch, err := c.u8()
	if err != nil {
		return "", err
	}
	flags, err := c.u8()
	if err != nil {
		return "", err
	}
	return c.chars(int(cch), flags&0x01 != 0)
}

// richString reads an SST entry and skips its formatting runs and phonetic data.
func (c *biffCursor) richString() (string, error) {
	cch, err := c.u16()
	if err != nil {
		return "", err
	}
	flags, err := c.u8()
	if err != nil {
		return "", err
	}

	var runs, ext int
	if flags&0x08 != 0 {
		n, err := c.u16()
		if err != nil {
			return "", err
		}
		runs = int(n)
	}
	if flags&0x04 != 0 {
		n, err := c.u32()
		if err != nil {
			return "", err
		}
		ext = int(n)
	}

	s, err := c.chars(int(cch), flags&0x01 != 0)
	if err != nil {
		return "", err
	}
	if err := c.skip(runs*4 + ext); err != nil {
		return "", err
	}
	return s, nil
}
