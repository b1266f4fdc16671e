package usage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"usage-pricing/core/amount"
	"usage-pricing/internal/errors"
)

// RowError describes a bulk-file row that was skipped
type RowError struct {
	Line    int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// column aliases accepted in bulk CDR files
var cdrColumns = map[string][]string{
	"external_id":      {"external_id", "id", "call_id"},
	"from_number":      {"from_number", "from", "caller"},
	"to_number":        {"to_number", "to", "destination", "callee"},
	"duration_seconds": {"duration_seconds", "duration", "seconds"},
	"started_at":       {"started_at", "usage_date", "date", "start_time"},
	"service_type":     {"service_type", "service"},
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ReadCDRFile reads a CSV of call-detail records with a header row.
// Rows with an unparsable date are skipped and reported as RowErrors;
// durations go through amount.ToAmount and are truncated to whole seconds.
func ReadCDRFile(r io.Reader) ([]CDR, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, errors.Parsing("usage file is empty", err)
		}
		return nil, nil, errors.Parsing("failed to read usage file header", err)
	}

	index := resolveColumns(header)
	if _, ok := index["to_number"]; !ok {
		return nil, nil, errors.Parsing("usage file has no destination column", nil).
			WithContext("header", header)
	}

	var (
		cdrs    []CDR
		rowErrs []RowError
		line    = 1
	)

	for {
		row, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return cdrs, rowErrs, errors.Parsing(fmt.Sprintf("failed to read usage file at line %d", line), err)
		}
		if isBlank(row) {
			continue
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		var startedAt time.Time
		if raw := get("started_at"); raw != "" {
			startedAt, err = parseTime(raw)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("unparsable date %q", raw)})
				continue
			}
		}

		cdrs = append(cdrs, CDR{
			ExternalID:      get("external_id"),
			FromNumber:      get("from_number"),
			ToNumber:        get("to_number"),
			ServiceType:     get("service_type"),
			DurationSeconds: amount.ToAmount(get("duration_seconds")).IntPart(),
			StartedAt:       startedAt,
			FromFile:        true,
		})
	}

	return cdrs, rowErrs, nil
}

// resolveColumns maps canonical column names to header positions. When a
// header carries two aliases of one column the leftmost wins.
func resolveColumns(header []string) map[string]int {
	canonical := make(map[string]string)
	for name, aliases := range cdrColumns {
		for _, alias := range aliases {
			canonical[alias] = name
		}
	}

	index := make(map[string]int)
	for i, col := range header {
		name, ok := canonical[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			continue
		}
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	return index
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", raw)
}

func isBlank(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
