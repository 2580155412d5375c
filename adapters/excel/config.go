package excel

import (
	"qareport/adapters/coercer"
)

// ReaderConfig holds the settings for reading uploaded spreadsheets
type ReaderConfig struct {
	CoercionConfig coercer.CoercionConfig
	// Use1904Dates reads date serials against the 1904 epoch used by old Mac workbooks
	Use1904Dates bool
}

// DefaultReaderConfig returns the default reader configuration
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
