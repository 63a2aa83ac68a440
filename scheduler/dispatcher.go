package scheduler

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mechaitanya/MarketPulse/models"
	"github.com/mechaitanya/MarketPulse/services/marketdata"
	"github.com/mechaitanya/MarketPulse/services/render"
	"github.com/mechaitanya/MarketPulse/services/twitter"
)

// ScheduleStore reads schedules, links and templates.
type ScheduleStore interface {
	ListActiveSchedules() ([]models.TweetSchedule, error)
	ListInstrumentTweets() ([]models.InstrumentTweet, error)
	GetTemplate(templateID int) (*models.TweetTemplate, error)
	GetSchedule(scheduleID int) (*models.TweetSchedule, error)
	LogTweet(entry *models.TweetLog) error
}

// MarketData fetches the domain records that fill templates.
type MarketData interface {
	GetQuote(ctx context.Context, instrumentID int) (marketdata.InstrumentQuote, error)
	GetWeekAggregate(ctx context.Context, instrumentID int) (marketdata.WeekAggregate, error)
	ListEarnings(instrumentID int) ([]marketdata.Earning, error)
	ListPressReleases(instrumentID int, language string, sourceID *int) ([]marketdata.PressRelease, error)
	MarkPressReleaseTweeted(id int64) error
}

// HolidayChecker answers whether a date is a market holiday.
type HolidayChecker interface {
	IsHoliday(instrumentID int64, date time.Time) bool
}

// TimeAdjuster shifts a due instant for host/instrument DST skew.
type TimeAdjuster interface {
	AdjustForDST(instrumentID int, candidate time.Time) time.Time
}

// Sender posts the rendered message.
type Sender interface {
	Send(ctx context.Context, instrumentID int, message string) twitter.SendOutcome
}

// ChartRenderer produces the graphic for rich templates.
type ChartRenderer interface {
	RenderGraphic(instrumentID int, htmlTemplate, fileStem, extension, ticker string) (string, error)
}

// Dispatcher runs the per-tick pipeline: collect schedules, evaluate
// due-ness, and fan each due (schedule, tweet type) pair out as its own
// unit of work. The tick ends only when every unit has finished.
type Dispatcher struct {
	store    ScheduleStore
	data     MarketData
	holidays HolidayChecker
	timezone TimeAdjuster
	sender   Sender
	charts   ChartRenderer

	tickRunning atomic.Bool
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(store ScheduleStore, data MarketData, holidays HolidayChecker,
	timezone TimeAdjuster, sender Sender, charts ChartRenderer) *Dispatcher {
	return &Dispatcher{
		store:    store,
		data:     data,
		holidays: holidays,
		timezone: timezone,
		sender:   sender,
		charts:   charts,
	}
}

// dueTweet is one resolved (schedule, link) pair ready to dispatch.
type dueTweet struct {
	InstrumentID int
	TweetType    string
	TemplateID   int
	ScheduleID   int
	DueTime      time.Time
}

// RunTick executes one dispatch cycle. A tick that arrives while the
// previous one is still draining is skipped: overlapping ticks would
// double-send every still-due schedule.
func (d *Dispatcher) RunTick(ctx context.Context, now time.Time) {
	if !d.tickRunning.CompareAndSwap(false, true) {
		log.Printf("Dispatch tick at %s skipped: previous tick still in progress", now.Format(time.RFC3339))
		return
	}
	defer d.tickRunning.Store(false)

	due := d.collectDue(now)
	if len(due) == 0 {
		return
	}
	log.Printf("Dispatching %d due tweets", len(due))

	var wg sync.WaitGroup
	for _, tweet := range due {
		wg.Add(1)
		go func(t dueTweet) {
			defer wg.Done()
			d.dispatchOne(ctx, t)
		}(tweet)
	}
	wg.Wait()
}

// collectDue loads schedules and links and filters them down to the pairs
// that fire on this tick, with DST-adjusted due instants.
func (d *Dispatcher) collectDue(now time.Time) []dueTweet {
	schedules, err := d.store.ListActiveSchedules()
	if err != nil {
		log.Printf("Failed to load schedules: %v", err)
		return nil
	}
	links, err := d.store.ListInstrumentTweets()
	if err != nil {
		log.Printf("Failed to load instrument tweets: %v", err)
		return nil
	}

	linksByKey := map[[2]int][]models.InstrumentTweet{}
	for _, link := range links {
		key := [2]int{link.InstrumentID, link.TemplateID}
		linksByKey[key] = append(linksByKey[key], link)
	}

	var due []dueTweet
	for _, schedule := range schedules {
		if !IsDue(schedule, now) {
			continue
		}
		tod, err := ParseTimeOfDay(schedule.TweetTime)
		if err != nil {
			log.Printf("Schedule %d has invalid tweet time %q", schedule.ScheduleID, schedule.TweetTime)
			continue
		}
		candidate := now.UTC().Truncate(24 * time.Hour).Add(tod)

		for _, link := range linksByKey[[2]int{schedule.InstrumentID, schedule.TemplateID}] {
			due = append(due, dueTweet{
				InstrumentID: link.InstrumentID,
				TweetType:    strings.ToLower(link.TweetType),
				TemplateID:   link.TemplateID,
				ScheduleID:   schedule.ScheduleID,
				DueTime:      d.timezone.AdjustForDST(link.InstrumentID, candidate),
			})
		}
	}
	return due
}

// DispatchSchedule fires every tweet linked to one schedule immediately,
// bypassing due-ness evaluation. Used by the ops API.
func (d *Dispatcher) DispatchSchedule(ctx context.Context, scheduleID int) error {
	schedule, err := d.store.GetSchedule(scheduleID)
	if err != nil {
		return err
	}
	links, err := d.store.ListInstrumentTweets()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, link := range links {
		if link.InstrumentID != schedule.InstrumentID || link.TemplateID != schedule.TemplateID {
			continue
		}
		d.dispatchOne(ctx, dueTweet{
			InstrumentID: link.InstrumentID,
			TweetType:    strings.ToLower(link.TweetType),
			TemplateID:   link.TemplateID,
			ScheduleID:   schedule.ScheduleID,
			DueTime:      d.timezone.AdjustForDST(link.InstrumentID, now),
		})
	}
	return nil
}

// dispatchOne runs the pipeline for a single due tweet. Every failure is
// contained here: nothing propagates to sibling units or the tick loop.
func (d *Dispatcher) dispatchOne(ctx context.Context, tweet dueTweet) {
	template, err := d.store.GetTemplate(tweet.TemplateID)
	if err != nil {
		log.Printf("Template %d not found for instrument %d (%s): %v",
			tweet.TemplateID, tweet.InstrumentID, tweet.TweetType, err)
		return
	}

	switch tweet.TweetType {
	case "pra":
		d.dispatchPressReleases(ctx, tweet, template)
	case "moa", "mca", "eod":
		d.dispatchQuote(ctx, tweet, template)
	case "eow":
		d.dispatchWeek(ctx, tweet, template)
	case "ea":
		d.dispatchEarnings(ctx, tweet, template)
	default:
		log.Printf("Unknown tweet type %q for instrument %d, skipping", tweet.TweetType, tweet.InstrumentID)
	}
}

// dispatchPressReleases posts one message per unposted press release
func (d *Dispatcher) dispatchPressReleases(ctx context.Context, tweet dueTweet, template *models.TweetTemplate) {
	releases, err := d.data.ListPressReleases(tweet.InstrumentID, template.LanguageType, template.SourceID)
	if err != nil {
		log.Printf("Press release fetch failed for instrument %d: %v", tweet.InstrumentID, err)
		return
	}

	for _, release := range releases {
		if d.holidays.IsHoliday(release.InstrumentID, tweet.DueTime) {
			continue
		}
		text := render.Render(template.MessageText, release)
		outcome := d.send(ctx, int(release.InstrumentID), tweet.TweetType, text)
		if outcome == twitter.OutcomeOK {
			if err := d.data.MarkPressReleaseTweeted(release.ID); err != nil {
				log.Printf("Failed to mark press release %d tweeted: %v", release.ID, err)
			}
		}
	}
}

// dispatchQuote posts a quote-snapshot message, with an optional graphic
func (d *Dispatcher) dispatchQuote(ctx context.Context, tweet dueTweet, template *models.TweetTemplate) {
	if d.holidays.IsHoliday(int64(tweet.InstrumentID), tweet.DueTime) {
		return
	}

	quote, err := d.data.GetQuote(ctx, tweet.InstrumentID)
	if err != nil {
		// Transient fetch failure: render with the zero record.
		log.Printf("Quote fetch failed for instrument %d: %v", tweet.InstrumentID, err)
	}

	message := template.MessageText
	if template.TweetLink != nil && template.HTMLTemplate != nil {
		fileStem := tweet.TweetType + "-" + time.Now().UTC().Format("060102")
		link := strings.ReplaceAll(*template.TweetLink, "{filename}", fileStem)
		extension := strings.ToLower(filepath.Ext(link))

		html := render.Render(*template.HTMLTemplate, quote)
		if _, err := d.charts.RenderGraphic(tweet.InstrumentID, html, fileStem, extension, quote.Ticker); err != nil {
			log.Printf("Graphic render failed for instrument %d: %v", tweet.InstrumentID, err)
		} else {
			message = message + " " + link
		}
	}

	text := render.Render(message, quote)
	d.send(ctx, tweet.InstrumentID, tweet.TweetType, text)
}

// dispatchWeek posts the end-of-week summary, rendered from both the weekly
// aggregate and the current quote
func (d *Dispatcher) dispatchWeek(ctx context.Context, tweet dueTweet, template *models.TweetTemplate) {
	if d.holidays.IsHoliday(int64(tweet.InstrumentID), tweet.DueTime) {
		return
	}

	quote, err := d.data.GetQuote(ctx, tweet.InstrumentID)
	if err != nil {
		log.Printf("Quote fetch failed for instrument %d: %v", tweet.InstrumentID, err)
	}
	week, err := d.data.GetWeekAggregate(ctx, tweet.InstrumentID)
	if err != nil {
		log.Printf("Week aggregate fetch failed for instrument %d: %v", tweet.InstrumentID, err)
	}

	message := template.MessageText
	if template.TweetLink != nil && template.HTMLTemplate != nil {
		fileStem := tweet.TweetType + "-" + time.Now().UTC().Format("060102")
		link := strings.ReplaceAll(*template.TweetLink, "{filename}", fileStem)
		ticker := quote.Ticker
		if ticker == "" {
			ticker = "test"
		}
		link = strings.ReplaceAll(link, "{ticker}", ticker)
		extension := strings.ToLower(filepath.Ext(link))

		html := render.Render(*template.HTMLTemplate, week)
		html = render.Render(html, quote)
		if _, err := d.charts.RenderGraphic(tweet.InstrumentID, html, fileStem, extension, ticker); err != nil {
			log.Printf("Graphic render failed for instrument %d: %v", tweet.InstrumentID, err)
		} else {
			message = message + " " + strings.TrimSpace(link)
		}
	}

	text := render.Render(message, week)
	d.send(ctx, tweet.InstrumentID, tweet.TweetType, text)
}

// dispatchEarnings posts one message per earnings-calendar event
func (d *Dispatcher) dispatchEarnings(ctx context.Context, tweet dueTweet, template *models.TweetTemplate) {
	earnings, err := d.data.ListEarnings(tweet.InstrumentID)
	if err != nil {
		log.Printf("Earnings fetch failed for instrument %d: %v", tweet.InstrumentID, err)
		return
	}

	for _, earning := range earnings {
		if d.holidays.IsHoliday(int64(tweet.InstrumentID), tweet.DueTime) {
			continue
		}
		text := render.Render(template.MessageText, earning)
		d.send(ctx, tweet.InstrumentID, tweet.TweetType, text)
	}
}

// send posts the rendered text and records the outcome
func (d *Dispatcher) send(ctx context.Context, instrumentID int, tweetType, text string) twitter.SendOutcome {
	outcome := d.sender.Send(ctx, instrumentID, text)
	entry := &models.TweetLog{
		InstrumentID: instrumentID,
		TweetType:    tweetType,
		Message:      text,
		Outcome:      outcome.String(),
		SentAt:       time.Now().UTC(),
	}
	if err := d.store.LogTweet(entry); err != nil {
		log.Printf("Failed to record tweet log for instrument %d: %v", instrumentID, err)
	}
	return outcome
}
