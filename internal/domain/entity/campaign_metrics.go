package entity

import "time"

// CampaignMetrics is the analytics snapshot stored on a campaign.
type CampaignMetrics struct {
	TotalScans     int64            `json:"total_scans"`
	TotalCheckins  int64            `json:"total_checkins"`
	UniqueUsers    int64            `json:"unique_users"`
	QRCodes        int              `json:"qr_codes"`
	CheckinsByDate map[string]int64 `json:"checkins_by_date"` // Keyed by YYYY-MM-DD.
	ComputedAt     time.Time        `json:"computed_at"`
}

// ComputeCampaignMetrics derives a fresh snapshot from the campaign's check-ins and QR codes.
// Dates are calendar days in loc.
func ComputeCampaignMetrics(checkins []*Checkin, qrCodes []*QRCode, loc *time.Location, now time.Time) *CampaignMetrics {
	if loc == nil {
		loc = time.UTC
	}

	metrics := &CampaignMetrics{
		TotalCheckins:  int64(len(checkins)),
		QRCodes:        len(qrCodes),
		CheckinsByDate: make(map[string]int64),
		ComputedAt:     now,
	}

	for _, qr := range qrCodes {
		metrics.TotalScans += int64(qr.ScanCount)
	}

	users := make(map[string]struct{}, len(checkins))
	for _, checkin := range checkins {
		users[checkin.UserID.String()] = struct{}{}
		metrics.CheckinsByDate[DayKey(checkin.CheckinTime, loc)]++
	}
	metrics.UniqueUsers = int64(len(users))

	return metrics
}

// RecordCheckin bumps the live counters kept between full recomputations.
// scanned marks a check-in made through one of the campaign's QR codes; newUser a user's first check-in in the campaign.
func (m *CampaignMetrics) RecordCheckin(day string, scanned, newUser bool) {
	m.TotalCheckins++
	if scanned {
		m.TotalScans++
	}
	if newUser {
		m.UniqueUsers++
	}
	if m.CheckinsByDate == nil {
		m.CheckinsByDate = make(map[string]int64)
	}
	m.CheckinsByDate[day]++
}
