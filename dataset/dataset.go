// Package dataset loads the per-state survey CSV into typed records.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/angas/riskplot-go/convert"
	"github.com/angas/riskplot-go/types"
)

// Policy decides what happens with a malformed record.
type Policy string

const (
	// PolicyAbort fails the whole load on the first malformed record.
	PolicyAbort Policy = "abort"
	// PolicySkip drops malformed records and reports them in Result.Skipped.
	PolicySkip Policy = "skip"
)

const (
	columnState = "state"
	columnAbbr  = "abbr"
)

// MalformedRecordError describes a row that could not be turned into a record.
type MalformedRecordError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("malformed record on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed record on line %d, column %s (%q): %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// ErrNoRecords is returned when a load yields no usable record, either
// because the file has only a header or because every row was skipped.
var ErrNoRecords = errors.New("dataset has no records")

type Result struct {
	Records types.Dataset
	Skipped []*MalformedRecordError
}

// Load reads a CSV with a header row. Columns are matched by name, columns
// not needed by the chart are ignored. A load without records fails with
// ErrNoRecords.
func Load(r io.Reader, policy Policy) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("reading header: empty input")
		}
		return Result{}, fmt.Errorf("reading header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var rec types.Record
		var malformed *MalformedRecordError
		var pe *csv.ParseError
		switch {
		case errors.As(err, &pe):
			malformed = &MalformedRecordError{Line: pe.Line, Err: pe.Err}
		case err != nil:
			return Result{}, fmt.Errorf("reading csv: %w", err)
		default:
			line, _ := reader.FieldPos(0)
			rec, malformed = parseRecord(row, index, line)
		}

		if malformed != nil {
			if policy != PolicySkip {
				return Result{}, malformed
			}
			res.Skipped = append(res.Skipped, malformed)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if res.Records.Len() == 0 {
		if len(res.Skipped) > 0 {
			return Result{}, fmt.Errorf("%w: all %d rows are malformed, first: %w", ErrNoRecords, len(res.Skipped), res.Skipped[0])
		}
		return Result{}, ErrNoRecords
	}
	return res, nil
}

func LoadFile(path string, policy Policy) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	res, err := Load(f, policy)
	if err != nil {
		return Result{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return res, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	required := []string{columnState, columnAbbr}
	for _, f := range types.AllFields() {
		required = append(required, f.String())
	}

	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing column(s): %s", strings.Join(missing, ", "))
	}

	return index, nil
}

func parseRecord(row []string, index map[string]int, line int) (types.Record, *MalformedRecordError) {
	text := func(column string) (string, *MalformedRecordError) {
		v := strings.TrimSpace(row[index[column]])
		if v == "" {
			return "", &MalformedRecordError{Line: line, Column: column, Err: fmt.Errorf("empty value")}
		}
		return v, nil
	}

	var rec types.Record
	var malformed *MalformedRecordError
	if rec.State, malformed = text(columnState); malformed != nil {
		return rec, malformed
	}
	if rec.Abbr, malformed = text(columnAbbr); malformed != nil {
		return rec, malformed
	}

	targets := map[types.Field]*float64{
		types.FieldPoverty:    &rec.Poverty,
		types.FieldAge:        &rec.Age,
		types.FieldIncome:     &rec.Income,
		types.FieldHealthcare: &rec.Healthcare,
		types.FieldSmokes:     &rec.Smokes,
		types.FieldObesity:    &rec.Obesity,
	}
	for _, f := range types.AllFields() {
		raw := row[index[f.String()]]
		v, err := convert.ParseNumber(raw)
		if err != nil {
			return rec, &MalformedRecordError{Line: line, Column: f.String(), Value: raw, Err: err}
		}
		*targets[f] = v
	}

	return rec, nil
}
