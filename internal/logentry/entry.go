// Package logentry parses single lines of line-delimited JSON application logs
// into validated, immutable entries.
//
// A line becomes an Entry only when it decodes as a JSON object carrying all of
// the required fields with the expected JSON types and a timestamp in one of
// the accepted ISO-8601 shapes. Anything else is rejected without an error:
// callers skip the line and move on.
package logentry

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field names every entry must carry.
const (
	FieldTimestamp = "timestamp"
	FieldLevel     = "level"
	FieldMessage   = "message"
	FieldModule    = "module"
	FieldFunction  = "function"
	FieldLine      = "line"
)

// RequiredFields lists the fields checked by Parse, in declaration order.
var RequiredFields = []string{
	FieldTimestamp, FieldLevel, FieldMessage, FieldModule, FieldFunction, FieldLine,
}

// Entry is one validated log record. The typed fields mirror the required
// JSON fields; every original field, passthrough ones included, stays
// available through Field and is what MarshalJSON emits.
type Entry struct {
	Timestamp string
	Level     string
	Message   string
	Module    string
	Function  string
	Line      int64

	parsed  time.Time
	hasTime bool
	naive   bool
	raw     map[string]json.RawMessage
}

// Time returns the parsed timestamp. Naive timestamps are interpreted as UTC.
func (e *Entry) Time() time.Time {
	return e.parsed
}

// HasTime reports whether the entry carries a comparable timestamp. Parse never
// produces an entry without one; the accessor keeps consumers explicit about it.
func (e *Entry) HasTime() bool {
	return e.hasTime
}

// Naive reports whether the source timestamp had no zone designator.
func (e *Entry) Naive() bool {
	return e.naive
}

// Field returns the named field rendered as a string. Strings come back
// verbatim, numbers in their shortest decimal form, booleans as true/false and
// objects or arrays as compact JSON. Absent and null fields report false.
func (e *Entry) Field(name string) (string, bool) {
	switch name {
	case FieldTimestamp:
		return e.Timestamp, true
	case FieldLevel:
		return e.Level, true
	case FieldMessage:
		return e.Message, true
	case FieldModule:
		return e.Module, true
	case FieldFunction:
		return e.Function, true
	case FieldLine:
		return strconv.FormatInt(e.Line, 10), true
	}

	raw, ok := e.raw[name]
	if !ok {
		return "", false
	}
	return renderValue(raw)
}

// MarshalJSON emits the source record. The parsed timestamp is derived state
// and is never serialized.
func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.raw)
}

func renderValue(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", false
		}
		return buf.String(), true
	case 't', 'f':
		return string(trimmed), true
	default:
		f, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			return string(trimmed), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
}

// Parse turns one raw line into an Entry. It reports false for anything that
// is not a JSON object with all required fields of the right types and a
// parseable timestamp.
func Parse(line string) (*Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return nil, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, false
	}

	e := &Entry{raw: raw}

	strs := []struct {
		name string
		dst  *string
	}{
		{FieldTimestamp, &e.Timestamp},
		{FieldLevel, &e.Level},
		{FieldMessage, &e.Message},
		{FieldModule, &e.Module},
		{FieldFunction, &e.Function},
	}
	for _, f := range strs {
		v, ok := raw[f.name]
		if !ok {
			return nil, false
		}
		if err := json.Unmarshal(v, f.dst); err != nil || isNull(v) {
			return nil, false
		}
	}

	lineNo, ok := raw[FieldLine]
	if !ok {
		return nil, false
	}
	n, ok := parseInteger(lineNo)
	if !ok {
		return nil, false
	}
	e.Line = n

	t, naive, err := ParseTimestamp(e.Timestamp)
	if err != nil {
		return nil, false
	}
	e.parsed = t
	e.hasTime = true
	e.naive = naive

	return e, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseInteger accepts JSON numbers with no fractional part, so 42 and 42.0
// both count as line numbers.
func parseInteger(raw json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return 0, false
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, false
	}
	if n, err := num.Int64(); err == nil {
		return n, true
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
