package store

import (
	"database/sql"
	"reflect"
	"testing"
	"time"
)

func TestMarshalIDs_NilIsEmptyArray(t *testing.T) {
	got, err := marshalIDs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[]" {
		t.Errorf("marshalIDs(nil) = %q, want []", got)
	}
}

func TestMarshalIDs_KeepsOrder(t *testing.T) {
	got, err := marshalIDs([]string{"c", "a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if got != `["c","a","b"]` {
		t.Errorf("marshalIDs() = %q", got)
	}
}

func TestUnmarshalIDs(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"empty string", "", []string{}},
		{"empty array", "[]", []string{}},
		{"values", `["x","y"]`, []string{"x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unmarshalIDs(tt.data)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("unmarshalIDs(%q) = %#v, want %#v", tt.data, got, tt.want)
			}
		})
	}
}

func TestUnmarshalIDs_InvalidJSON(t *testing.T) {
	if _, err := unmarshalIDs(`{"a":1}`); err == nil {
		t.Error("expected error for non-array JSON")
	}
}

func TestMarshalTime_UTC(t *testing.T) {
	local := time.Date(2026, 1, 2, 4, 4, 5, 500, time.FixedZone("CET", 3600))
	got := marshalTime(local)
	if got != "2026-01-02T03:04:05.0000005Z" {
		t.Errorf("marshalTime() = %q", got)
	}

	back, err := unmarshalTime(got)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(local) {
		t.Errorf("unmarshalTime() = %v, want %v", back, local)
	}
}

func TestUnmarshalNullTime(t *testing.T) {
	got, err := unmarshalNullTime(sql.NullString{})
	if err != nil || got != nil {
		t.Errorf("unmarshalNullTime(NULL) = %v, %v; want nil, nil", got, err)
	}

	got, err = unmarshalNullTime(sql.NullString{String: "2026-01-02T03:04:05Z", Valid: true})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(testEpoch) {
		t.Errorf("unmarshalNullTime() = %v, want %v", got, testEpoch)
	}

	if _, err := unmarshalNullTime(sql.NullString{String: "yesterday", Valid: true}); err == nil {
		t.Error("expected error for malformed time")
	}
}
