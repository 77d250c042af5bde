package ingest

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// externalDateLayout is the MM/dd/yyyy form SAM.gov uses in notice exports.
const externalDateLayout = "01/02/2006"

// isoLayouts are tried, in order, when the external form does not match.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an upstream date string: the external layout first, then
// ISO-8601. Blank and unparseable values yield nil; the latter are logged.
func ParseDate(raw, field, solicitationNumber string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if t, err := time.Parse(externalDateLayout, s); err == nil {
		return &t
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	zap.L().Warn("unparseable date, treating as absent",
		zap.String("field", field),
		zap.String("value", raw),
		zap.String("solicitation_number", solicitationNumber),
	)
	return nil
}
