package domain

import (
	"path/filepath"
	"strings"
)

// FileKind is the ingestion format chosen from the declared file name.
type FileKind string

const (
	FileKindCSV  FileKind = "csv"
	FileKindXLSX FileKind = "xlsx"
	FileKindXLS  FileKind = "xls"
)

// FileKindFromName maps the extension to a kind. Unknown extensions are delimited text.
func FileKindFromName(name string) FileKind {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "xlsx":
		return FileKindXLSX
	case "xls":
		return FileKindXLS
	default:
		return FileKindCSV
	}
}

// IsSpreadsheet reports whether the kind goes through the Excel decoders.
func (k FileKind) IsSpreadsheet() bool {
	return k == FileKindXLSX || k == FileKindXLS
}
