package models

import (
	"time"

	"gorm.io/gorm"
)

// User holds the posting account linked to an instrument. AccessCode and
// AccessSecretToken are the account's OAuth1 user credentials.
type User struct {
	InstrumentID      int    `gorm:"primaryKey" json:"instrument_id"`
	UserName          string `json:"user_name"`
	AccessCode        string `json:"-"`
	AccessSecretToken string `json:"-"`
	CultureCode       string `json:"culture_code"`
	CompanyName       string `json:"company_name"`
}

// TweetSchedule describes when tweets for an instrument should fire.
// TweetDays is a comma-separated list of weekday names ("Monday,Tuesday").
// TweetTime is the UTC time of day in "HH:MM" or "HH:MM:SS" form.
type TweetSchedule struct {
	ScheduleID          int       `gorm:"primaryKey" json:"schedule_id"`
	InstrumentID        int       `gorm:"index" json:"instrument_id"`
	TweetDays           string    `json:"tweet_days"`
	TweetTime           string    `json:"tweet_time"`
	TweetFrequencyType  string    `json:"tweet_frequency_type"` // minutes, hourly, daily, weekly, monthly
	TweetFrequencyValue int       `json:"tweet_frequency_value"`
	TemplateID          int       `json:"template_id"`
	IsActive            bool      `gorm:"default:true" json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TweetTemplate is an operator-authored message template. MessageText,
// TweetLink and HTMLTemplate contain {field} and {field}:{spec} placeholders.
type TweetTemplate struct {
	TemplateID   int     `gorm:"primaryKey" json:"template_id"`
	TweetType    string  `json:"tweet_type"` // pra, moa, eod, eow, ea, mca
	MessageText  string  `json:"message_text"`
	TweetLink    *string `json:"tweet_link"`
	HTMLTemplate *string `json:"html_template"`
	SourceID     *int    `json:"source_id"`
	LanguageType string  `json:"language_type"`
}

// InstrumentTweet links an instrument and tweet type to exactly one template.
type InstrumentTweet struct {
	InstrumentTweetID int    `gorm:"primaryKey" json:"instrument_tweet_id"`
	InstrumentID      int    `gorm:"index" json:"instrument_id"`
	TweetType         string `json:"tweet_type"`
	TemplateID        int    `json:"template_id"`
}

// PublicHoliday is one market-holiday entry for an instrument.
type PublicHoliday struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InstrumentID int64     `gorm:"index" json:"instrument_id"`
	EventName    string    `json:"event_name"`
	Date         time.Time `json:"date"`
	Market       int16     `json:"market"`
}

// InstrumentTimezone maps an instrument to its market's IANA timezone name.
type InstrumentTimezone struct {
	InstrumentID int    `gorm:"primaryKey" json:"instrument_id"`
	TimezoneName string `json:"timezone_name"`
}

// TweetLog records the outcome of a dispatch attempt.
type TweetLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InstrumentID int       `gorm:"index" json:"instrument_id"`
	TweetType    string    `json:"tweet_type"`
	Message      string    `json:"message"`
	Outcome      string    `json:"outcome"`
	SentAt       time.Time `gorm:"index" json:"sent_at"`
}

// MigrateTweetModels runs database migrations for scheduling models
func MigrateTweetModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&TweetSchedule{},
		&TweetTemplate{},
		&InstrumentTweet{},
		&PublicHoliday{},
		&InstrumentTimezone{},
		&TweetLog{},
	)
}
