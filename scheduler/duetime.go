package scheduler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mechaitanya/MarketPulse/models"
)

// unixEpoch anchors the weekly frequency arithmetic.
var unixEpoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// IsDue reports whether a schedule fires on the tick at now. It is a pure
// function: calling it any number of times for the same inputs has no side
// effects, so the tick loop can evaluate every schedule exactly once.
func IsDue(s models.TweetSchedule, now time.Time) bool {
	if !s.IsActive || s.TweetFrequencyValue <= 0 {
		return false
	}

	// Schedules are expressed in UTC, so the weekday and the time of day
	// must both come from the UTC clock.
	utcNow := now.UTC()
	if !containsDay(s.TweetDays, utcNow.Weekday()) {
		return false
	}

	tod, err := ParseTimeOfDay(s.TweetTime)
	if err != nil {
		return false
	}

	nowTod := timeOfDay(utcNow)
	if tod > nowTod {
		return false
	}

	return matchesFrequency(tod, nowTod, s.TweetFrequencyType, s.TweetFrequencyValue, utcNow)
}

// matchesFrequency applies the per-unit repeat arithmetic. The weekly and
// monthly cases use fixed-point day/7 and day/30 approximations rather than
// calendar-aware boundaries; existing schedules depend on firing exactly
// when they always have.
func matchesFrequency(tod, nowTod time.Duration, frequencyType string, value int, now time.Time) bool {
	elapsed := nowTod - tod

	switch strings.ToLower(frequencyType) {
	case "minutes":
		return int(elapsed.Minutes())%value == 0

	case "hourly":
		return int(elapsed.Hours())%value == 0

	case "daily":
		intervalMinutes := float64(24*60) / float64(value)
		return math.Mod(elapsed.Minutes(), intervalMinutes) < 1

	case "weekly":
		daysSinceEpoch := now.Sub(unixEpoch).Hours() / 24
		weeks := (daysSinceEpoch - tod.Hours()/24) / 7
		return weeks >= 0 && int(weeks)%value == 0

	case "monthly":
		months := elapsed.Hours() / 24 / 30
		return int(months)%value == 0

	default:
		// Unknown frequency kinds never fire.
		return false
	}
}

// containsDay checks the comma-separated day list for now's weekday name
func containsDay(days string, day time.Weekday) bool {
	name := day.String()
	for _, d := range strings.Split(days, ",") {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}

// timeOfDay returns the UTC time of day of t
func timeOfDay(t time.Time) time.Duration {
	utc := t.UTC()
	return time.Duration(utc.Hour())*time.Hour +
		time.Duration(utc.Minute())*time.Minute +
		time.Duration(utc.Second())*time.Second
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into a duration since midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}

	return time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second, nil
}
