package router

import (
	"strings"

	cbigquery "cloud.google.com/go/bigquery"
)

// nullString maps nil or blank strings to a NULL column.
func nullString(value *string) cbigquery.NullString {
	if value == nil {
		return cbigquery.NullString{}
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return cbigquery.NullString{}
	}
	return cbigquery.NullString{StringVal: trimmed, Valid: true}
}
