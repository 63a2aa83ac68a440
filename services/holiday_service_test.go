package services

import (
	"errors"
	"testing"
	"time"

	"github.com/mechaitanya/MarketPulse/models"
)

type fakeHolidaySource struct {
	holidays []models.PublicHoliday
	ids      []int
	err      error
	calls    int
}

func (f *fakeHolidaySource) ListHolidays(instrumentIDs []int) ([]models.PublicHoliday, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.holidays, nil
}

func (f *fakeHolidaySource) ListInstrumentIDs() ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

func TestIsHolidayMatchesCalendarDate(t *testing.T) {
	christmas := time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC)
	source := &fakeHolidaySource{
		ids: []int{42},
		holidays: []models.PublicHoliday{
			{InstrumentID: 42, EventName: "Christmas Day", Date: christmas},
		},
	}
	svc := NewHolidayService(source)

	// Time of day must not matter.
	afternoon := christmas.Add(15*time.Hour + 30*time.Minute)
	if !svc.IsHoliday(42, afternoon) {
		t.Error("expected holiday on the calendar date regardless of time")
	}
	if svc.IsHoliday(42, christmas.AddDate(0, 0, 1)) {
		t.Error("day after the holiday should not match")
	}
	if svc.IsHoliday(7, christmas) {
		t.Error("other instruments should not match")
	}
}

func TestIsHolidayFailsOpenWhenSourceUnavailable(t *testing.T) {
	source := &fakeHolidaySource{err: errors.New("db down")}
	svc := NewHolidayService(source)

	if svc.IsHoliday(42, time.Now()) {
		t.Fatal("unavailable source must report no holiday")
	}
}

func TestRefreshIsReusedWithinTTL(t *testing.T) {
	source := &fakeHolidaySource{ids: []int{42}}
	svc := NewHolidayService(source)

	if err := svc.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	calls := source.calls

	// A fresh snapshot satisfies later refreshes without touching the source.
	if err := svc.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	svc.EnsureFresh()
	if source.calls != calls {
		t.Fatalf("expected no further source reads, got %d", source.calls-calls)
	}
}

func TestForceRefreshReloadsWithinTTL(t *testing.T) {
	christmas := time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC)
	source := &fakeHolidaySource{ids: []int{42}}
	svc := NewHolidayService(source)

	if err := svc.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if svc.IsHoliday(42, christmas) {
		t.Fatal("holiday not yet in source")
	}

	// An operator adds a holiday; a plain Refresh inside the TTL is a
	// no-op, a forced one must pick the row up immediately.
	source.holidays = []models.PublicHoliday{
		{InstrumentID: 42, EventName: "Christmas Day", Date: christmas},
	}
	if err := svc.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if svc.IsHoliday(42, christmas) {
		t.Fatal("plain refresh inside the TTL should not reload")
	}

	if err := svc.ForceRefresh(); err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if !svc.IsHoliday(42, christmas) {
		t.Fatal("forced refresh must reload the snapshot")
	}
}

func TestHolidayStatusReportsStaleness(t *testing.T) {
	source := &fakeHolidaySource{
		ids: []int{42},
		holidays: []models.PublicHoliday{
			{InstrumentID: 42, Date: time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC)},
		},
	}
	svc := NewHolidayService(source)

	if status := svc.Status(); !status.Stale {
		t.Fatal("unloaded cache should report stale")
	}

	if err := svc.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	status := svc.Status()
	if status.Stale {
		t.Error("freshly loaded cache should not be stale")
	}
	if status.Entries != 1 {
		t.Errorf("entries = %d, want 1", status.Entries)
	}
	if got := status.ExpiresAt.Sub(status.RefreshedAt); got != HolidayCacheTTL {
		t.Errorf("TTL window = %v, want %v", got, HolidayCacheTTL)
	}
}
