package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mechaitanya/MarketPulse/models"
	"github.com/mechaitanya/MarketPulse/services/marketdata"
	"github.com/mechaitanya/MarketPulse/services/twitter"
)

type fakeStore struct {
	mu        sync.Mutex
	schedules []models.TweetSchedule
	links     []models.InstrumentTweet
	templates map[int]*models.TweetTemplate
	logs      []models.TweetLog
}

func (f *fakeStore) ListActiveSchedules() ([]models.TweetSchedule, error) { return f.schedules, nil }
func (f *fakeStore) ListInstrumentTweets() ([]models.InstrumentTweet, error) {
	return f.links, nil
}
func (f *fakeStore) GetTemplate(templateID int) (*models.TweetTemplate, error) {
	t, ok := f.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("template %d not found", templateID)
	}
	return t, nil
}
func (f *fakeStore) GetSchedule(scheduleID int) (*models.TweetSchedule, error) {
	for i := range f.schedules {
		if f.schedules[i].ScheduleID == scheduleID {
			return &f.schedules[i], nil
		}
	}
	return nil, fmt.Errorf("schedule %d not found", scheduleID)
}
func (f *fakeStore) LogTweet(entry *models.TweetLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *entry)
	return nil
}

type fakeData struct {
	quotes   map[int]marketdata.InstrumentQuote
	weeks    map[int]marketdata.WeekAggregate
	earnings map[int][]marketdata.Earning
	releases map[int][]marketdata.PressRelease

	mu     sync.Mutex
	marked []int64
}

func (f *fakeData) GetQuote(ctx context.Context, instrumentID int) (marketdata.InstrumentQuote, error) {
	q, ok := f.quotes[instrumentID]
	if !ok {
		return marketdata.InstrumentQuote{}, fmt.Errorf("no quote for %d", instrumentID)
	}
	return q, nil
}
func (f *fakeData) GetWeekAggregate(ctx context.Context, instrumentID int) (marketdata.WeekAggregate, error) {
	return f.weeks[instrumentID], nil
}
func (f *fakeData) ListEarnings(instrumentID int) ([]marketdata.Earning, error) {
	return f.earnings[instrumentID], nil
}
func (f *fakeData) ListPressReleases(instrumentID int, language string, sourceID *int) ([]marketdata.PressRelease, error) {
	return f.releases[instrumentID], nil
}
func (f *fakeData) MarkPressReleaseTweeted(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

type fakeHolidays struct {
	holidays map[int64]bool
}

func (f *fakeHolidays) IsHoliday(instrumentID int64, date time.Time) bool {
	return f.holidays[instrumentID]
}

type identityAdjuster struct{}

func (identityAdjuster) AdjustForDST(instrumentID int, candidate time.Time) time.Time {
	return candidate
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	outcomes map[int]twitter.SendOutcome
	gate     chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, instrumentID int, message string) twitter.SendOutcome {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.sent = append(f.sent, message)
	f.mu.Unlock()
	if outcome, ok := f.outcomes[instrumentID]; ok {
		return outcome
	}
	return twitter.OutcomeOK
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeCharts struct{}

func (fakeCharts) RenderGraphic(instrumentID int, htmlTemplate, fileStem, extension, ticker string) (string, error) {
	return "/tmp/" + fileStem + extension, nil
}

// tickTime is a Monday 09:00 UTC.
var tickTime = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

func dailySchedule(scheduleID, instrumentID, templateID int) models.TweetSchedule {
	return models.TweetSchedule{
		ScheduleID:          scheduleID,
		InstrumentID:        instrumentID,
		TweetDays:           "Monday,Tuesday,Wednesday,Thursday,Friday",
		TweetTime:           "09:00",
		TweetFrequencyType:  "daily",
		TweetFrequencyValue: 1,
		TemplateID:          templateID,
		IsActive:            true,
	}
}

func quoteFixture(instrumentID int, last float64) marketdata.InstrumentQuote {
	return marketdata.InstrumentQuote{
		InstrumentID: instrumentID,
		Last:         decimal.NewFromFloat(last),
		Ticker:       "ACME",
	}
}

func newTestDispatcher(store *fakeStore, data *fakeData, holidays *fakeHolidays, sender *fakeSender) *Dispatcher {
	if holidays == nil {
		holidays = &fakeHolidays{}
	}
	return NewDispatcher(store, data, holidays, identityAdjuster{}, sender, fakeCharts{})
}

func TestRunTickRendersAndSends(t *testing.T) {
	store := &fakeStore{
		schedules: []models.TweetSchedule{dailySchedule(1, 42, 7)},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "eod", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "eod", MessageText: "Price: {last}:{F2}"},
		},
	}
	data := &fakeData{quotes: map[int]marketdata.InstrumentQuote{42: quoteFixture(42, 101.256)}}
	sender := &fakeSender{}

	d := newTestDispatcher(store, data, nil, sender)
	d.RunTick(context.Background(), tickTime)

	messages := sender.messages()
	if len(messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(messages))
	}
	if messages[0] != "Price: 101.26" {
		t.Fatalf("sent %q", messages[0])
	}
	if len(store.logs) != 1 || store.logs[0].Outcome != "ok" {
		t.Fatalf("logs = %+v, want one ok entry", store.logs)
	}
}

func TestRunTickOneFailureDoesNotBlockOthers(t *testing.T) {
	store := &fakeStore{templates: map[int]*models.TweetTemplate{}}
	data := &fakeData{quotes: map[int]marketdata.InstrumentQuote{}}
	for i := 1; i <= 10; i++ {
		instrumentID := 100 + i
		store.schedules = append(store.schedules, dailySchedule(i, instrumentID, i))
		store.links = append(store.links, models.InstrumentTweet{
			InstrumentTweetID: i, InstrumentID: instrumentID, TweetType: "eod", TemplateID: i,
		})
		store.templates[i] = &models.TweetTemplate{TemplateID: i, TweetType: "eod", MessageText: "Last {last}"}
		data.quotes[instrumentID] = quoteFixture(instrumentID, float64(i))
	}
	sender := &fakeSender{outcomes: map[int]twitter.SendOutcome{105: twitter.OutcomeFailed}}

	d := newTestDispatcher(store, data, nil, sender)
	d.RunTick(context.Background(), tickTime)

	if got := len(sender.messages()); got != 10 {
		t.Fatalf("sent %d messages, want 10 attempts", got)
	}
	var failed int
	for _, entry := range store.logs {
		if entry.Outcome == "failed" {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("failed log entries = %d, want 1", failed)
	}
}

func TestRunTickSuppressesHolidays(t *testing.T) {
	store := &fakeStore{
		schedules: []models.TweetSchedule{dailySchedule(1, 42, 7)},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "eod", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "eod", MessageText: "Last {last}"},
		},
	}
	data := &fakeData{quotes: map[int]marketdata.InstrumentQuote{42: quoteFixture(42, 99)}}
	sender := &fakeSender{}

	d := newTestDispatcher(store, data, &fakeHolidays{holidays: map[int64]bool{42: true}}, sender)
	d.RunTick(context.Background(), tickTime)

	if got := len(sender.messages()); got != 0 {
		t.Fatalf("sent %d messages on a holiday, want 0", got)
	}
}

func TestRunTickSkipsWhileInProgress(t *testing.T) {
	store := &fakeStore{
		schedules: []models.TweetSchedule{dailySchedule(1, 42, 7)},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "eod", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "eod", MessageText: "Last {last}"},
		},
	}
	data := &fakeData{quotes: map[int]marketdata.InstrumentQuote{42: quoteFixture(42, 99)}}
	sender := &fakeSender{gate: make(chan struct{})}

	d := newTestDispatcher(store, data, nil, sender)

	done := make(chan struct{})
	go func() {
		d.RunTick(context.Background(), tickTime)
		close(done)
	}()

	// Wait for the first tick to claim the guard, then a second tick
	// must return immediately without dispatching.
	for !d.tickRunning.Load() {
		time.Sleep(time.Millisecond)
	}
	d.RunTick(context.Background(), tickTime.Add(time.Minute))

	close(sender.gate)
	<-done

	if got := len(sender.messages()); got != 1 {
		t.Fatalf("sent %d messages, want 1 (overlapping tick skipped)", got)
	}
}

func TestRunTickUnknownTweetTypeSkipped(t *testing.T) {
	store := &fakeStore{
		schedules: []models.TweetSchedule{dailySchedule(1, 42, 7)},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "xyz", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "xyz", MessageText: "Last {last}"},
		},
	}
	sender := &fakeSender{}

	d := newTestDispatcher(store, &fakeData{}, nil, sender)
	d.RunTick(context.Background(), tickTime)

	if got := len(sender.messages()); got != 0 {
		t.Fatalf("sent %d messages for unknown tweet type, want 0", got)
	}
}

func TestPressReleasesMarkedOnlyWhenSent(t *testing.T) {
	store := &fakeStore{
		schedules: []models.TweetSchedule{dailySchedule(1, 42, 7)},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "pra", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "pra", MessageText: "{pr_title} {pr_link}"},
		},
	}
	data := &fakeData{
		releases: map[int][]marketdata.PressRelease{
			42: {
				{ID: 1, InstrumentID: 42, Title: "Q3 results", Link: "https://x.test/1"},
				{ID: 2, InstrumentID: 42, Title: "New CFO", Link: "https://x.test/2"},
			},
		},
	}
	sender := &fakeSender{outcomes: map[int]twitter.SendOutcome{}}

	d := newTestDispatcher(store, data, nil, sender)
	d.RunTick(context.Background(), tickTime)

	if got := len(sender.messages()); got != 2 {
		t.Fatalf("sent %d press releases, want 2", got)
	}
	if len(data.marked) != 2 {
		t.Fatalf("marked %v, want both releases marked", data.marked)
	}
}

func TestPressReleasesNotMarkedOnFailure(t *testing.T) {
	store := &fakeStore{
		schedules: []models.TweetSchedule{dailySchedule(1, 42, 7)},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "pra", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "pra", MessageText: "{pr_title}"},
		},
	}
	data := &fakeData{
		releases: map[int][]marketdata.PressRelease{
			42: {{ID: 1, InstrumentID: 42, Title: "Q3 results"}},
		},
	}
	sender := &fakeSender{outcomes: map[int]twitter.SendOutcome{42: twitter.OutcomeFailed}}

	d := newTestDispatcher(store, data, nil, sender)
	d.RunTick(context.Background(), tickTime)

	if len(data.marked) != 0 {
		t.Fatalf("marked %v, failed sends must not mark releases", data.marked)
	}
}

func TestEarningsOneMessagePerEvent(t *testing.T) {
	store := &fakeStore{
		schedules: []models.TweetSchedule{dailySchedule(1, 42, 7)},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "ea", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "ea", MessageText: "{e_eventname} on {e_date}:{MMM dd, yyyy}"},
		},
	}
	data := &fakeData{
		earnings: map[int][]marketdata.Earning{
			42: {
				{InstrumentID: 42, EventName: "Q1 report", Date: time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)},
				{InstrumentID: 42, EventName: "AGM", Date: time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)},
			},
		},
	}
	sender := &fakeSender{}

	d := newTestDispatcher(store, data, nil, sender)
	d.RunTick(context.Background(), tickTime)

	messages := sender.messages()
	if len(messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(messages))
	}
	want := map[string]bool{
		"Q1 report on Apr 15, 2024": true,
		"AGM on May 02, 2024":       true,
	}
	for _, m := range messages {
		if !want[m] {
			t.Errorf("unexpected message %q", m)
		}
	}
}

func TestDispatchScheduleBypassesDueness(t *testing.T) {
	schedule := dailySchedule(1, 42, 7)
	schedule.TweetTime = "23:59" // would never be due at tickTime
	store := &fakeStore{
		schedules: []models.TweetSchedule{schedule},
		links: []models.InstrumentTweet{
			{InstrumentTweetID: 1, InstrumentID: 42, TweetType: "eod", TemplateID: 7},
		},
		templates: map[int]*models.TweetTemplate{
			7: {TemplateID: 7, TweetType: "eod", MessageText: "Last {last}"},
		},
	}
	data := &fakeData{quotes: map[int]marketdata.InstrumentQuote{42: quoteFixture(42, 99)}}
	sender := &fakeSender{}

	d := newTestDispatcher(store, data, nil, sender)
	if err := d.DispatchSchedule(context.Background(), 1); err != nil {
		t.Fatalf("DispatchSchedule: %v", err)
	}
	if got := len(sender.messages()); got != 1 {
		t.Fatalf("sent %d messages, want 1", got)
	}
}

func TestDispatchScheduleUnknownID(t *testing.T) {
	store := &fakeStore{templates: map[int]*models.TweetTemplate{}}
	d := newTestDispatcher(store, &fakeData{}, nil, &fakeSender{})
	if err := d.DispatchSchedule(context.Background(), 404); err == nil {
		t.Fatal("expected error for unknown schedule")
	}
}
