package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mechaitanya/MarketPulse/services/render"
)

// InstrumentQuote is the current market snapshot for one instrument. It backs
// the moa, mca and eod tweet types.
type InstrumentQuote struct {
	InstrumentID         int             `bson:"instrument_id"`
	Bid                  decimal.Decimal `bson:"bid"`
	Ask                  decimal.Decimal `bson:"ask"`
	Open                 decimal.Decimal `bson:"open"`
	High                 decimal.Decimal `bson:"high"`
	Low                  decimal.Decimal `bson:"low"`
	Last                 decimal.Decimal `bson:"last"`
	Mid                  decimal.Decimal `bson:"mid"`
	Volume               int64           `bson:"volume"`
	Date                 time.Time       `bson:"date"`
	PrevClose            decimal.Decimal `bson:"prev_close"`
	Change               decimal.Decimal `bson:"change"`
	ChangePercentage     decimal.Decimal `bson:"change_percentage"`
	OpenChange           decimal.Decimal `bson:"open_change"`
	OpenChangePercentage decimal.Decimal `bson:"open_change_percentage"`
	CurrencyCode         string          `bson:"currency_code"`
	Name                 string          `bson:"name"`
	YTD                  decimal.Decimal `bson:"ytd"`
	Week                 decimal.Decimal `bson:"week"`
	Month                decimal.Decimal `bson:"month"`
	NoShares             decimal.Decimal `bson:"no_shares"`
	MarketCap            decimal.Decimal `bson:"market_cap"`
	High52w              decimal.Decimal `bson:"high_52w"`
	Low52w               decimal.Decimal `bson:"low_52w"`
	Change52w            decimal.Decimal `bson:"change_52w"`
	AllTimeHigh          decimal.Decimal `bson:"all_time_high"`
	AllTimeLow           decimal.Decimal `bson:"all_time_low"`
	EPS                  decimal.Decimal `bson:"eps"`
	DPS                  decimal.Decimal `bson:"dps"`
	Turnover             decimal.Decimal `bson:"turnover"`
	Ticker               string          `bson:"ticker"`
	MarketName           string          `bson:"market_name"`
}

// TemplateFields returns the quote's placeholder schema.
func (q InstrumentQuote) TemplateFields() []render.Field {
	return []render.Field{
		{Name: "InstrumentId", Value: q.InstrumentID},
		{Name: "Bid", Value: q.Bid},
		{Name: "Ask", Value: q.Ask},
		{Name: "Open", Value: q.Open},
		{Name: "High", Value: q.High},
		{Name: "Low", Value: q.Low},
		{Name: "Last", Value: q.Last},
		{Name: "Mid", Value: q.Mid},
		{Name: "Volume", Value: q.Volume},
		{Name: "Date", Value: q.Date},
		{Name: "PrevClose", Value: q.PrevClose},
		{Name: "Change", Value: q.Change},
		{Name: "ChangePercentage", Value: q.ChangePercentage},
		{Name: "OpenChange", Value: q.OpenChange},
		{Name: "OpenChangePercentage", Value: q.OpenChangePercentage},
		{Name: "CurrencyCode", Value: q.CurrencyCode},
		{Name: "Name", Value: q.Name},
		{Name: "YTD", Value: q.YTD},
		{Name: "Week", Value: q.Week},
		{Name: "Month", Value: q.Month},
		{Name: "NoShares", Value: q.NoShares},
		{Name: "MarketCap", Value: q.MarketCap},
		{Name: "_52wHigh", Value: q.High52w},
		{Name: "_52wLow", Value: q.Low52w},
		{Name: "_52wChange", Value: q.Change52w},
		{Name: "AllTimeHigh", Value: q.AllTimeHigh},
		{Name: "AllTimeLow", Value: q.AllTimeLow},
		{Name: "EPS", Value: q.EPS},
		{Name: "DPS", Value: q.DPS},
		{Name: "Turnover", Value: q.Turnover},
		{Name: "Ticker", Value: q.Ticker},
		{Name: "MarketName", Value: q.MarketName},
	}
}

// WeekAggregate is the weekly summary used by the eow tweet type.
type WeekAggregate struct {
	WeekChange           decimal.Decimal `bson:"week_change"`
	WeekChangePercentage decimal.Decimal `bson:"week_changepercentage"`
	WeekLow              decimal.Decimal `bson:"week_low"`
	WeekHigh             decimal.Decimal `bson:"week_high"`
	WeekVolume           int64           `bson:"week_volume"`
	FirstDayOfWeek       time.Time       `bson:"first_day_of_week"`
	LastDayOfWeek        time.Time       `bson:"last_day_of_week"`
	CurrentYear          string          `bson:"current_year"`
}

// TemplateFields returns the weekly aggregate's placeholder schema.
func (w WeekAggregate) TemplateFields() []render.Field {
	return []render.Field{
		{Name: "Week_change", Value: w.WeekChange},
		{Name: "Week_changepercentage", Value: w.WeekChangePercentage},
		{Name: "Week_low", Value: w.WeekLow},
		{Name: "Week_high", Value: w.WeekHigh},
		{Name: "Week_volume", Value: w.WeekVolume},
		{Name: "FirstDayOfWeek", Value: w.FirstDayOfWeek},
		{Name: "LastDayOfWeek", Value: w.LastDayOfWeek},
		{Name: "CurrentYear", Value: w.CurrentYear},
	}
}

// Earning is one upcoming earnings-calendar event.
type Earning struct {
	InstrumentID int       `gorm:"column:instrument_id"`
	EventName    string    `gorm:"column:event_name"`
	Date         time.Time `gorm:"column:date"`
}

// TemplateFields returns the earnings event's placeholder schema.
func (e Earning) TemplateFields() []render.Field {
	return []render.Field{
		{Name: "E_InstrumentId", Value: e.InstrumentID},
		{Name: "E_EventName", Value: e.EventName},
		{Name: "E_Date", Value: e.Date},
	}
}

// PressRelease is one press-release entry pending publication.
type PressRelease struct {
	ID           int64     `gorm:"column:id"`
	Title        string    `gorm:"column:title"`
	Date         time.Time `gorm:"column:date"`
	ServerDate   time.Time `gorm:"column:server_date"`
	InstrumentID int64     `gorm:"column:instrument_id"`
	Language     string    `gorm:"column:language"`
	MessageType  string    `gorm:"column:message_type"`
	Link         string    `gorm:"column:link"`
	Tweeted      bool      `gorm:"column:tweeted"`
}

// TemplateFields returns the press release's placeholder schema.
func (p PressRelease) TemplateFields() []render.Field {
	return []render.Field{
		{Name: "PR_ID", Value: p.ID},
		{Name: "PR_Title", Value: p.Title},
		{Name: "PR_Date", Value: p.Date},
		{Name: "PR_ServerDate", Value: p.ServerDate},
		{Name: "PR_Instrument_ID", Value: p.InstrumentID},
		{Name: "PR_Language", Value: p.Language},
		{Name: "PR_MessageType", Value: p.MessageType},
		{Name: "PR_Link", Value: p.Link},
	}
}

// WeekGraphPoint is one trade observation feeding the end-of-week chart.
type WeekGraphPoint struct {
	InstrumentID int             `gorm:"column:instrument_id"`
	Date         time.Time       `gorm:"column:date"`
	Price        decimal.Decimal `gorm:"column:price"`
	Size         int             `gorm:"column:size"`
}
