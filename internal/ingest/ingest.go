package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RequiredColumns is the canonical ordered set of column names every
// upload header must contain. Validation errors list missing names in
// this order.
var RequiredColumns = []string{"id", "name", "description", "basePrice", "stock", "image", "category"}

// Record is one product row parsed from an upload. BasePrice and Stock
// are numeric; every other field carries the raw source value without
// trimming or coercion. A basePrice or stock value that does not parse
// as a number becomes NaN rather than an error.
type Record struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BasePrice   float64 `json:"basePrice"`
	Stock       float64 `json:"stock"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
}

// MarshalJSON renders non-finite numeric fields as null so records
// parsed from malformed numeric cells still serialize.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		BasePrice   *float64 `json:"basePrice"`
		Stock       *float64 `json:"stock"`
		Image       string   `json:"image"`
		Category    string   `json:"category"`
	}
	a := alias{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		Category:    r.Category,
	}
	if isFinite(r.BasePrice) {
		v := r.BasePrice
		a.BasePrice = &v
	}
	if isFinite(r.Stock) {
		v := r.Stock
		a.Stock = &v
	}
	return json.Marshal(a)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidationError reports required columns absent from the header row.
type ValidationError struct {
	MissingColumns []string
}

func (e *ValidationError) Error() string {
	return "missing required columns: " + strings.Join(e.MissingColumns, ", ")
}

// Parse converts raw upload text into product records.
//
// The format is deliberately minimal: rows split on newlines, fields
// split on the comma character only. There is no quoted-field support,
// so embedded commas corrupt alignment; that is an accepted limitation
// of the format, not something Parse tries to repair. Rows that are
// empty after trimming whitespace are dropped (a row of only commas is
// kept). The first surviving row is the header; every name in
// RequiredColumns must appear in it, matched exactly and
// case-sensitively, in any order. Header order defines the
// position-to-field mapping for data rows. Row length is not
// validated: positions past a short row's end leave string fields
// empty and numeric fields NaN, and values under unknown header names
// are dropped.
//
// Empty input, or input whose only surviving row is a valid header,
// yields an empty slice and no error.
func Parse(raw string) ([]Record, error) {
	lines := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return []Record{}, nil
	}

	headers := strings.Split(lines[0], ",")
	if err := validateHeaders(headers); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")

		row := make(map[string]string, len(headers))
		for i, name := range headers {
			if i < len(values) {
				row[name] = values[i]
			}
		}

		records = append(records, Record{
			ID:          row["id"],
			Name:        row["name"],
			Description: row["description"],
			BasePrice:   parseNumber(row["basePrice"]),
			Stock:       parseNumber(row["stock"]),
			Image:       row["image"],
			Category:    row["category"],
		})
	}

	return records, nil
}

// validateHeaders checks that every required column name appears
// somewhere in the header row.
func validateHeaders(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, name := range RequiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{MissingColumns: missing}
	}
	return nil
}

// parseNumber parses a numeric cell. Values that fail to parse,
// including cells absent from short rows, become NaN.
func parseNumber(value string) float64 {
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return num
}
