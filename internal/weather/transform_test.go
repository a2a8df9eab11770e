package weather

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBigEndian(t *testing.T) {
	got, err := BigEndian(Row{"date": "19700101", "value": "4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Sample{Date: day(1970, 1, 1), Value: "4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected sample (-want +got):\n%s", diff)
	}
}

func TestISO8601(t *testing.T) {
	got, err := ISO8601(Row{"date": "1970-02-01", "value": "0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Sample{Date: day(1970, 2, 1), Value: "0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected sample (-want +got):\n%s", diff)
	}
}

func TestTransformRejectsOtherEncodings(t *testing.T) {
	if _, err := BigEndian(Row{"date": "1970-01-01", "value": "1"}); err == nil {
		t.Error("big-endian should reject an ISO date")
	}
	if _, err := ISO8601(Row{"date": "19700101", "value": "1"}); err == nil {
		t.Error("iso8601 should reject a fixed-width date")
	}
}

func TestAutoType(t *testing.T) {
	tests := []struct {
		row  Row
		want Sample
	}{
		{Row{"date": "1970-03-01", "value": " 4.50 "}, Sample{Date: day(1970, 3, 1), Value: "4.5"}},
		{Row{"date": "1970-03-01T00:00:00Z", "value": "12"}, Sample{Date: day(1970, 3, 1), Value: "12"}},
		{Row{"date": "1970-03", "value": "n/a"}, Sample{Date: day(1970, 3, 1), Value: "n/a"}},
	}
	for _, tt := range tests {
		got, err := AutoType(tt.row)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", tt.row, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%v: unexpected sample (-want +got):\n%s", tt.row, diff)
		}
	}

	if _, err := AutoType(Row{"date": "yesterday"}); err == nil {
		t.Error("expected an error for an unknown date encoding")
	}
}

func TestTransformByName(t *testing.T) {
	for _, name := range []string{TransformBigEndian, TransformISO8601, TransformAuto, ""} {
		if _, ok := TransformByName(name); !ok {
			t.Errorf("transform %q should be known", name)
		}
	}
	if _, ok := TransformByName("little-endian"); ok {
		t.Error("unexpected transform little-endian")
	}
}
