package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarshalJSON encodes the record's fields as a flat JSON object. Integers
// are written without a decimal point and reals always carry one, so
// UnmarshalJSON restores the original kinds.
func (record Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range record.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		switch v := record.Fields[key].(type) {
		case Integer:
			buf.WriteString(strconv.FormatInt(int64(v), 10))
		case Real:
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, fmt.Errorf("column %s: %v cannot be encoded", key, float64(v))
			}
			buf.WriteString(formatReal(float64(v)))
		case Text:
			value, err := json.Marshal(string(v))
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		default:
			return nil, fmt.Errorf("%w: column %s", ErrUnsupportedType, key)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object. The table name is not part of
// the encoding and is left untouched.
func (record *Record) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return err
	}

	fields := make(map[string]Field, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = Text(v)
		case json.Number:
			f, err := parseNumber(v)
			if err != nil {
				return fmt.Errorf("column %s: %w", key, err)
			}
			fields[key] = f
		default:
			return fmt.Errorf("%w: column %s holds %T", ErrUnsupportedType, key, value)
		}
	}
	record.Fields = fields
	return nil
}

func parseNumber(n json.Number) (Field, error) {
	if strings.ContainsAny(n.String(), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return Real(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		return nil, err
	}
	return Integer(i), nil
}

func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
