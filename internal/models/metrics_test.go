package models

import (
	"testing"
	"time"
)

func TestSeriesStore_HostNamesSorted(t *testing.T) {
	store := SeriesStore{
		"osi10014.im.dom": {},
		"osi10011.im.dom": {},
		"b-host":          {},
		"a-host":          {},
	}

	got := store.HostNames()
	want := []string{"a-host", "b-host", "osi10011.im.dom", "osi10014.im.dom"}
	if len(got) != len(want) {
		t.Fatalf("HostNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("HostNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSeriesStore_SampleCount(t *testing.T) {
	store := SeriesStore{
		"h1": {
			"if0": {Timestamps: []time.Time{time.Unix(0, 0)}, Values: []int64{1}},
			"if1": {Timestamps: []time.Time{time.Unix(0, 0), time.Unix(20, 0)}, Values: []int64{1, 2}},
		},
		"h2": {"if0": EmptySeries()},
	}
	if got := store.SampleCount(); got != 3 {
		t.Errorf("SampleCount() = %d, want 3", got)
	}
}

func TestEmptySeries(t *testing.T) {
	s := EmptySeries()
	if s.Timestamps == nil || s.Values == nil {
		t.Fatal("EmptySeries should return non-nil slices")
	}
	if s.HasData() {
		t.Error("EmptySeries should not report data")
	}
}

func TestRefString(t *testing.T) {
	r := Ref{Type: "HostSystem", Value: "host-12"}
	if r.String() != "HostSystem:host-12" {
		t.Errorf("String() = %q", r.String())
	}
}
