package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestRecordJSONKeepsKinds(t *testing.T) {
	record := NewRecord("people", map[string]Field{
		"age":    Integer(31),
		"height": Real(2),
		"ratio":  Real(0.25),
		"name":   Text("John \"JD\" Doe"),
	})

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	want := `{"age":31,"height":2.0,"name":"John \"JD\" Doe","ratio":0.25}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	decoded := NewRecord("people", nil)
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if !decoded.Equal(record) {
		t.Errorf("Decoded record differs: %#v", decoded.Fields)
	}
	if decoded.Fields["height"].Kind() != KindReal {
		t.Errorf("Expected height to stay Real, got %v", decoded.Fields["height"].Kind())
	}
}

func TestRecordJSONRejectsUnsupportedValues(t *testing.T) {
	inputs := []string{
		`{"done":true}`,
		`{"tags":["a","b"]}`,
		`{"missing":null}`,
	}

	for _, input := range inputs {
		var record Record
		err := json.Unmarshal([]byte(input), &record)
		if !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("%s: expected ErrUnsupportedType, got %v", input, err)
		}
	}
}

func TestRecordJSONRejectsNaN(t *testing.T) {
	record := NewRecord("t", map[string]Field{"x": Real(math.NaN())})
	if _, err := json.Marshal(record); err == nil {
		t.Error("Expected NaN to fail encoding")
	}
}
