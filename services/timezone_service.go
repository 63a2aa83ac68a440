package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mechaitanya/MarketPulse/models"
)

// TimezoneNameSource resolves an instrument's market timezone name.
type TimezoneNameSource interface {
	GetTimezoneName(instrumentID int) (string, error)
}

// GormTimezoneSource reads the instrument timezone table.
type GormTimezoneSource struct {
	db *gorm.DB
}

// NewGormTimezoneSource creates the relational timezone source
func NewGormTimezoneSource(db *gorm.DB) *GormTimezoneSource {
	return &GormTimezoneSource{db: db}
}

// GetTimezoneName returns the IANA timezone name for an instrument
func (g *GormTimezoneSource) GetTimezoneName(instrumentID int) (string, error) {
	var row models.InstrumentTimezone
	if err := g.db.Where("instrument_id = ?", instrumentID).First(&row).Error; err != nil {
		return "", err
	}
	return row.TimezoneName, nil
}

// TimezoneService adjusts a candidate due instant for asymmetric
// daylight-saving state between the host and the instrument's market.
type TimezoneService struct {
	source TimezoneNameSource
	host   *time.Location
}

// NewTimezoneService creates the adjuster. The host location defaults to
// time.Local.
func NewTimezoneService(source TimezoneNameSource) *TimezoneService {
	return &TimezoneService{source: source, host: time.Local}
}

// WithHostLocation overrides the host location
func (t *TimezoneService) WithHostLocation(loc *time.Location) *TimezoneService {
	t.host = loc
	return t
}

// AdjustForDST shifts the candidate instant by one hour when exactly one of
// host and instrument timezones is in daylight saving at that instant.
// Resolution failure returns the instant unchanged; timezone problems must
// never suppress a post.
func (t *TimezoneService) AdjustForDST(instrumentID int, candidate time.Time) time.Time {
	name, err := t.source.GetTimezoneName(instrumentID)
	if err != nil || name == "" {
		log.Printf("Timezone lookup failed for instrument %d, using host time: %v", instrumentID, err)
		return candidate
	}

	instrumentLoc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Invalid timezone %q for instrument %d, using host time: %v", name, instrumentID, err)
		return candidate
	}

	hostDST := isDST(candidate, t.host)
	instrumentDST := isDST(candidate, instrumentLoc)

	switch {
	case hostDST && !instrumentDST:
		return candidate.Add(time.Hour)
	case !hostDST && instrumentDST:
		return candidate.Add(-time.Hour)
	default:
		return candidate
	}
}

// isDST reports whether the location observes daylight saving at t, by
// comparing the instant's UTC offset against the zone's standard offset
// (the smaller of the January and July offsets, which covers both
// hemispheres).
func isDST(t time.Time, loc *time.Location) bool {
	_, offset := t.In(loc).Zone()

	year := t.In(loc).Year()
	_, janOffset := time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	_, julOffset := time.Date(year, time.July, 1, 12, 0, 0, 0, loc).Zone()

	standard := janOffset
	if julOffset < standard {
		standard = julOffset
	}
	return offset > standard
}
