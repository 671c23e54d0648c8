package domain

import (
	"strconv"
	"time"
)

// CellKind tags the variant held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is a raw value read from a spreadsheet or delimited file, before coercion.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }

func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Time: t} }

// IsEmpty reports whether the cell carries no value. Whitespace-only text is not empty.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.Text == "")
}

// String renders the cell the way it would read in a text column.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		if c.Time.IsZero() {
			return ""
		}
		return c.Time.Format(SendTimeLayout)
	default:
		return ""
	}
}

// RawField is one header/value pair of a decoded row.
type RawField struct {
	Key   string
	Value Cell
}

// RawRow keeps the source column order so that the first matching header wins.
type RawRow []RawField
