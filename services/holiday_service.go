package services

import (
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mechaitanya/MarketPulse/models"
)

// HolidayCacheTTL is how long a refreshed holiday snapshot stays valid.
// Holiday calendars change rarely; seven days matches the upstream feed.
const HolidayCacheTTL = 7 * 24 * time.Hour

// HolidaySource provides the rows backing the holiday snapshot.
type HolidaySource interface {
	ListHolidays(instrumentIDs []int) ([]models.PublicHoliday, error)
	ListInstrumentIDs() ([]int, error)
}

type holidayKey struct {
	instrumentID int64
	date         string // yyyy-mm-dd
}

// HolidayService keeps a TTL-bounded in-memory snapshot of market holidays.
//
// IsHoliday is fail-open: if the snapshot is empty or stale and an inline
// refresh fails, it reports "not a holiday" rather than blocking publishing.
// Callers rely on this as a named policy, not an accident.
type HolidayService struct {
	source HolidaySource

	mu          sync.RWMutex
	snapshot    map[holidayKey]struct{}
	refreshedAt time.Time
	expiresAt   time.Time

	refreshMu sync.Mutex
}

// NewHolidayService creates a holiday cache over the given source
func NewHolidayService(source HolidaySource) *HolidayService {
	return &HolidayService{source: source}
}

// GormHolidaySource reads holidays and instrument ids from Postgres.
type GormHolidaySource struct {
	db *gorm.DB
}

// NewGormHolidaySource creates the relational holiday source
func NewGormHolidaySource(db *gorm.DB) *GormHolidaySource {
	return &GormHolidaySource{db: db}
}

// ListHolidays returns holiday rows for the given instruments
func (g *GormHolidaySource) ListHolidays(instrumentIDs []int) ([]models.PublicHoliday, error) {
	var holidays []models.PublicHoliday
	err := g.db.Where("instrument_id IN ?", instrumentIDs).Find(&holidays).Error
	return holidays, err
}

// ListInstrumentIDs returns the instrument ids of all posting accounts
func (g *GormHolidaySource) ListInstrumentIDs() ([]int, error) {
	var ids []int
	err := g.db.Model(&models.User{}).Pluck("instrument_id", &ids).Error
	return ids, err
}

// IsHoliday reports whether the calendar date of t is a market holiday for
// the instrument. Time of day is ignored.
func (h *HolidayService) IsHoliday(instrumentID int64, t time.Time) bool {
	h.mu.RLock()
	valid := h.snapshot != nil && time.Now().Before(h.expiresAt)
	if valid {
		_, found := h.snapshot[holidayKey{instrumentID, t.Format("2006-01-02")}]
		h.mu.RUnlock()
		return found
	}
	h.mu.RUnlock()

	// Stale or missing snapshot: one inline refresh attempt, then fail open.
	if err := h.Refresh(); err != nil {
		log.Printf("Holiday cache unavailable, failing open: %v", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	_, found := h.snapshot[holidayKey{instrumentID, t.Format("2006-01-02")}]
	return found
}

// EnsureFresh refreshes the snapshot when the TTL has lapsed. Called from a
// one-minute scheduler job.
func (h *HolidayService) EnsureFresh() {
	h.mu.RLock()
	fresh := h.snapshot != nil && time.Now().Before(h.expiresAt)
	h.mu.RUnlock()
	if fresh {
		return
	}
	if err := h.Refresh(); err != nil {
		log.Printf("Holiday cache refresh failed: %v", err)
	}
}

// Refresh rebuilds the snapshot from the source unless it is still within
// its TTL. Safe to call concurrently; at most one refresh runs at a time
// and late callers reuse its result.
func (h *HolidayService) Refresh() error {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	h.mu.RLock()
	fresh := h.snapshot != nil && time.Now().Before(h.expiresAt)
	h.mu.RUnlock()
	if fresh {
		return nil
	}

	return h.reload()
}

// ForceRefresh rebuilds the snapshot even when it is still fresh. Used by
// the ops API so an operator's holiday edit takes effect immediately
// instead of after the TTL lapses.
func (h *HolidayService) ForceRefresh() error {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()
	return h.reload()
}

// reload rebuilds the snapshot from the source. Callers hold refreshMu.
func (h *HolidayService) reload() error {
	ids, err := h.source.ListInstrumentIDs()
	if err != nil {
		return err
	}
	holidays, err := h.source.ListHolidays(ids)
	if err != nil {
		return err
	}

	snapshot := make(map[holidayKey]struct{}, len(holidays))
	for _, holiday := range holidays {
		snapshot[holidayKey{holiday.InstrumentID, holiday.Date.Format("2006-01-02")}] = struct{}{}
	}

	now := time.Now()
	h.mu.Lock()
	h.snapshot = snapshot
	h.refreshedAt = now
	h.expiresAt = now.Add(HolidayCacheTTL)
	h.mu.Unlock()

	log.Printf("Holiday cache refreshed: %d entries for %d instruments", len(snapshot), len(ids))
	return nil
}

// Status describes the cache for the ops API.
type HolidayCacheStatus struct {
	Entries     int       `json:"entries"`
	RefreshedAt time.Time `json:"refreshed_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Stale       bool      `json:"stale"`
}

// Status returns a point-in-time view of the cache
func (h *HolidayService) Status() HolidayCacheStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HolidayCacheStatus{
		Entries:     len(h.snapshot),
		RefreshedAt: h.refreshedAt,
		ExpiresAt:   h.expiresAt,
		Stale:       h.snapshot == nil || time.Now().After(h.expiresAt),
	}
}
