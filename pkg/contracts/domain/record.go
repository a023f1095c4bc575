package domain

// FileKind classifies a broker export file by its content type.
type FileKind string

const (
	FileKindTradeBook    FileKind = "trade_book"
	FileKindCapitalGains FileKind = "capital_gains"
	FileKindHoldings     FileKind = "holdings"
	FileKindUnknown      FileKind = "unknown"
)

// RecordRef points back at the exact source of a record so every dropped
// record and anomaly stays individually traceable in the issue log.
type RecordRef struct {
	ClientID string `json:"client_id"`
	Broker   string `json:"broker"`
	FilePath string `json:"file_path"`
	Row      int    `json:"row"`
}

// RawRecord is one untyped spreadsheet row keyed by source column name.
// RawRecords exist only between the reader and the normalizer; they are
// discarded once canonical records have been produced.
type RawRecord struct {
	Ref    RecordRef
	Fields map[string]string
}

// RawFile is a fully read broker export: resolved identity, detected kind,
// leading metadata rows, the header and every data row.
type RawFile struct {
	Path     string
	ClientID string
	Broker   string
	Kind     FileKind
	Metadata map[string]string
	Columns  []string
	Records  []RawRecord
}
