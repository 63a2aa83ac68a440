package marketdata

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// serverDateSkew is subtracted from a press release's server date so a
// release published moments before the tick is still picked up.
const serverDateSkew = -2 * time.Minute

// Service combines the realtime feed (quotes, week aggregates) with the
// relational reads (press releases, earnings, chart points).
type Service struct {
	db   *gorm.DB
	feed *MongoClient
}

// NewService creates a market data service
func NewService(db *gorm.DB, feed *MongoClient) *Service {
	return &Service{db: db, feed: feed}
}

// GetQuote returns the current snapshot for one instrument
func (s *Service) GetQuote(ctx context.Context, instrumentID int) (InstrumentQuote, error) {
	return s.feed.GetQuote(ctx, instrumentID)
}

// GetWeekAggregate returns the weekly summary for one instrument
func (s *Service) GetWeekAggregate(ctx context.Context, instrumentID int) (WeekAggregate, error) {
	return s.feed.GetWeekAggregate(ctx, instrumentID)
}

// ListPressReleases returns un-tweeted releases for the instrument, filtered
// by language and optionally by numeric source id.
func (s *Service) ListPressReleases(instrumentID int, language string, sourceID *int) ([]PressRelease, error) {
	var releases []PressRelease
	query := s.db.Table("press_releases").
		Where("instrument_id = ? AND tweeted = ?", instrumentID, false)
	if language != "" {
		query = query.Where("language = ?", language)
	}
	if sourceID != nil {
		query = query.Where("source_id = ?", *sourceID)
	}
	if err := query.Order("server_date").Find(&releases).Error; err != nil {
		return nil, err
	}
	for i := range releases {
		releases[i].ServerDate = releases[i].ServerDate.Add(serverDateSkew)
	}
	return releases, nil
}

// MarkPressReleaseTweeted records that a release has been posted so it is
// never picked up by a later tick.
func (s *Service) MarkPressReleaseTweeted(id int64) error {
	return s.db.Table("press_releases").
		Where("id = ?", id).
		Update("tweeted", true).Error
}

// ListEarnings returns upcoming earnings-calendar events for the instrument
func (s *Service) ListEarnings(instrumentID int) ([]Earning, error) {
	var earnings []Earning
	err := s.db.Table("earnings_calendar").
		Where("instrument_id = ?", instrumentID).
		Order("date").
		Find(&earnings).Error
	return earnings, err
}

// ListWeekGraphPoints returns the trade observations feeding the weekly chart
func (s *Service) ListWeekGraphPoints(instrumentID int) ([]WeekGraphPoint, error) {
	var points []WeekGraphPoint
	err := s.db.Table("week_graph_data").
		Where("instrument_id = ?", instrumentID).
		Order("date").
		Find(&points).Error
	return points, err
}
