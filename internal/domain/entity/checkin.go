package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// dayLayout is the calendar day key format.
const dayLayout = time.DateOnly

// CheckinStatus is the validity of a check-in. Only valid check-ins count toward the daily limit.
type CheckinStatus string

const (
	CheckinStatusValid   CheckinStatus = "valid"
	CheckinStatusInvalid CheckinStatus = "invalid"
	CheckinStatusPending CheckinStatus = "pending"
)

// IsValid checks if the status is a known value.
func (s CheckinStatus) IsValid() bool {
	return s == CheckinStatusValid || s == CheckinStatusInvalid || s == CheckinStatusPending
}

// Checkin records a user visiting a store. It is immutable except for admin status and points corrections.
type Checkin struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	StoreID      uuid.UUID     `json:"store_id"`
	CampaignID   *uuid.UUID    `json:"campaign_id,omitempty"`
	QRCodeID     *uuid.UUID    `json:"qr_code_id,omitempty"`
	CheckinTime  time.Time     `json:"checkin_time"`
	CheckinDate  string        `json:"checkin_date"` // Calendar day of CheckinTime in the engine's zone.
	PointsEarned int           `json:"points_earned"`
	Status       CheckinStatus `json:"status"`
	Location     *orb.Point    `json:"location,omitempty"` // [longitude, latitude]
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// SpentContribution is what the check-in adds to its campaign's spent total. Only valid check-ins count.
func (c *Checkin) SpentContribution() int {
	if c.Status != CheckinStatusValid {
		return 0
	}

	return c.PointsEarned
}

// DayKey formats the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	return t.In(loc).Format(dayLayout)
}

// DayWindow returns [start of day, start of next day) of now in loc.
func DayWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	from = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	return from, from.AddDate(0, 0, 1)
}

// CurrentStreak counts the unbroken run of consecutive days ending today, today included.
// history must be ordered by check-in time ascending; entries on or after today are ignored.
func CurrentStreak(history []*Checkin, today string) int {
	todayDate, err := time.Parse(dayLayout, today)
	if err != nil {
		return 1
	}

	var (
		run     int
		lastDay time.Time
	)
	for _, checkin := range history {
		if checkin.Status != CheckinStatusValid {
			continue
		}
		day, err := time.Parse(dayLayout, checkin.CheckinDate)
		if err != nil || !day.Before(todayDate) {
			continue
		}

		switch {
		case run == 0:
			run = 1
		case day.Equal(lastDay):
			continue
		case day.Equal(lastDay.AddDate(0, 0, 1)):
			run++
		default:
			run = 1
		}
		lastDay = day
	}

	if run > 0 && lastDay.AddDate(0, 0, 1).Equal(todayDate) {
		return run + 1
	}

	return 1
}
