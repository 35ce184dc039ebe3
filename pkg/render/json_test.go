package render

import (
	"reflect"
	"testing"

	"github.com/lanegraph/lanegraph/pkg/lanes"
)

func TestLayoutRoundTrip(t *testing.T) {
	commits := []lanes.Commit{
		lanes.NewCommit("c3", "c2"),
		lanes.NewCommit("c2", "c1", "c0"),
		lanes.NewCommit("c1"),
		lanes.NewCommit("c0"),
	}
	layout := lanes.Compute(commits, lanes.Options{})

	data, err := MarshalLayout(layout)
	if err != nil {
		t.Fatalf("MarshalLayout() error = %v", err)
	}
	got, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout() error = %v", err)
	}
	if !reflect.DeepEqual(got, layout) {
		t.Errorf("round trip = %+v, want %+v", got, layout)
	}
}

func TestUnmarshalLayoutRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalLayout([]byte("{not json")); err == nil {
		t.Error("UnmarshalLayout() error = nil, want error")
	}
}
