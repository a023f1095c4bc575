package config

// Placeholder directory names that can never be broker names. A file sitting
// directly under one of these resolves its broker from the filename instead.
var PlaceholderDirs = map[string]bool{
	"uploaded_files": true,
	"uploads":        true,
	"files":          true,
	"data":           true,
	"exports":        true,
}

const (
	// ClientIDPrefix and ClientIDDigits define the canonical client
	// identifier shape: a letter prefix followed by zero-padded digits.
	ClientIDPrefix = "C"
	ClientIDDigits = 3

	// UnknownBroker is the last-resort broker label.
	UnknownBroker = "Platform_Unknown"

	// AccountBrokerPrefix labels a pseudo-broker derived from an account
	// number found in the filename.
	AccountBrokerPrefix = "Account_"
)

// SpreadsheetExtensions lists the input file extensions the pipeline ingests.
var SpreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}
