package services

import (
	"errors"
	"testing"
	"time"
)

type fakeTimezoneSource struct {
	names map[int]string
	err   error
}

func (f *fakeTimezoneSource) GetTimezoneName(instrumentID int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.names[instrumentID], nil
}

func TestAdjustForDSTHostAheadOfInstrument(t *testing.T) {
	// July: New York observes DST, UTC never does.
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	source := &fakeTimezoneSource{names: map[int]string{42: "UTC"}}
	svc := NewTimezoneService(source).WithHostLocation(newYork)

	candidate := time.Date(2026, time.July, 6, 9, 0, 0, 0, time.UTC)
	got := svc.AdjustForDST(42, candidate)
	if want := candidate.Add(time.Hour); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAdjustForDSTInstrumentAheadOfHost(t *testing.T) {
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	source := &fakeTimezoneSource{names: map[int]string{42: "America/New_York"}}
	svc := NewTimezoneService(source).WithHostLocation(time.UTC)

	candidate := time.Date(2026, time.July, 6, 9, 0, 0, 0, time.UTC)
	got := svc.AdjustForDST(42, candidate)
	if want := candidate.Add(-time.Hour); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAdjustForDSTSymmetricZonesUnchanged(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	source := &fakeTimezoneSource{names: map[int]string{42: "America/New_York"}}
	svc := NewTimezoneService(source).WithHostLocation(newYork)

	for _, candidate := range []time.Time{
		time.Date(2026, time.July, 6, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	} {
		if got := svc.AdjustForDST(42, candidate); !got.Equal(candidate) {
			t.Errorf("symmetric DST state should leave %v unchanged, got %v", candidate, got)
		}
	}
}

func TestAdjustForDSTWinterNoAdjustment(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	source := &fakeTimezoneSource{names: map[int]string{42: "UTC"}}
	svc := NewTimezoneService(source).WithHostLocation(newYork)

	// January: neither zone in DST.
	candidate := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	if got := svc.AdjustForDST(42, candidate); !got.Equal(candidate) {
		t.Fatalf("got %v, want unchanged", got)
	}
}

func TestAdjustForDSTLookupFailureUnchanged(t *testing.T) {
	source := &fakeTimezoneSource{err: errors.New("db down")}
	svc := NewTimezoneService(source).WithHostLocation(time.UTC)

	candidate := time.Date(2026, time.July, 6, 9, 0, 0, 0, time.UTC)
	if got := svc.AdjustForDST(42, candidate); !got.Equal(candidate) {
		t.Fatal("lookup failure must not shift the due time")
	}
}

func TestAdjustForDSTUnknownZoneNameUnchanged(t *testing.T) {
	source := &fakeTimezoneSource{names: map[int]string{42: "Mars/Olympus_Mons"}}
	svc := NewTimezoneService(source).WithHostLocation(time.UTC)

	candidate := time.Date(2026, time.July, 6, 9, 0, 0, 0, time.UTC)
	if got := svc.AdjustForDST(42, candidate); !got.Equal(candidate) {
		t.Fatal("unknown zone must not shift the due time")
	}
}
