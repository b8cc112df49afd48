package entity

import (
	"testing"
	"time"

	domainerrors "loyalty/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allCampaignStatuses = []CampaignStatus{
	CampaignStatusDraft,
	CampaignStatusActive,
	CampaignStatusPaused,
	CampaignStatusCompleted,
	CampaignStatusCancelled,
}

func newTestCampaign(t *testing.T, status CampaignStatus, start, end time.Time) *Campaign {
	t.Helper()

	campaign, err := NewCampaign(NewCampaignInput{
		MerchantID: uuid.New(),
		CreatedBy:  uuid.New(),
		Name:       "Welcome",
		Type:       CampaignTypePoints,
		StartDate:  start,
		EndDate:    end,
	})
	require.NoError(t, err)
	campaign.Status = status

	return campaign
}

func TestNewCampaign(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	negative := decimal.NewFromInt(-1)

	tests := []struct {
		name    string
		input   NewCampaignInput
		wantErr error
	}{
		{
			name:  "valid",
			input: NewCampaignInput{Name: "Welcome", Type: CampaignTypePoints, StartDate: start, EndDate: start.AddDate(0, 0, 30)},
		},
		{
			name:    "empty name",
			input:   NewCampaignInput{Name: "  ", Type: CampaignTypePoints, StartDate: start, EndDate: start.AddDate(0, 0, 30)},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "unknown type",
			input:   NewCampaignInput{Name: "Welcome", Type: "lottery", StartDate: start, EndDate: start.AddDate(0, 0, 30)},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "start equals end",
			input:   NewCampaignInput{Name: "Welcome", Type: CampaignTypeGift, StartDate: start, EndDate: start},
			wantErr: domainerrors.ErrInvalidDateRange,
		},
		{
			name:    "start after end",
			input:   NewCampaignInput{Name: "Welcome", Type: CampaignTypeGift, StartDate: start.AddDate(0, 0, 1), EndDate: start},
			wantErr: domainerrors.ErrInvalidDateRange,
		},
		{
			name:    "negative budget",
			input:   NewCampaignInput{Name: "Welcome", Type: CampaignTypeGift, StartDate: start, EndDate: start.AddDate(0, 0, 1), Budget: &negative},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "unknown timezone",
			input:   NewCampaignInput{Name: "Welcome", Type: CampaignTypeGift, StartDate: start, EndDate: start.AddDate(0, 0, 1), Timezone: "Mars/Olympus"},
			wantErr: domainerrors.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign, err := NewCampaign(tt.input)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, campaign)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, CampaignStatusDraft, campaign.Status)
			assert.True(t, campaign.Spent.IsZero())
		})
	}
}

func TestCampaign_TransitionMatrix(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	allowed := map[CampaignStatus][]CampaignStatus{
		CampaignStatusDraft:  {CampaignStatusActive, CampaignStatusCancelled},
		CampaignStatusActive: {CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled},
		CampaignStatusPaused: {CampaignStatusActive, CampaignStatusCompleted, CampaignStatusCancelled},
	}

	for _, from := range allCampaignStatuses {
		for _, to := range allCampaignStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				campaign := newTestCampaign(t, from, now.AddDate(0, 0, -1), now.AddDate(0, 0, 30))
				before := *campaign

				err := campaign.Transition(to, now)

				want := false
				for _, target := range allowed[from] {
					if target == to {
						want = true
					}
				}
				if !want {
					assert.True(t, errors.Is(err, domainerrors.ErrInvalidTransition), "got %v", err)
					assert.Equal(t, from, campaign.Status)

					return
				}

				require.NoError(t, err)
				assert.Equal(t, to, campaign.Status)

				before.Status = to
				assert.Equal(t, before, *campaign)
			})
		}
	}
}

func TestCampaign_TransitionExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, from := range []CampaignStatus{CampaignStatusDraft, CampaignStatusPaused} {
		t.Run(string(from), func(t *testing.T) {
			campaign := newTestCampaign(t, from, now.AddDate(0, 0, -30), now.AddDate(0, 0, -1))

			err := campaign.Transition(CampaignStatusActive, now)
			assert.True(t, errors.Is(err, domainerrors.ErrExpiredCampaign), "got %v", err)
			assert.Equal(t, from, campaign.Status)
		})
	}

	t.Run("expired campaigns can still be completed", func(t *testing.T) {
		campaign := newTestCampaign(t, CampaignStatusPaused, now.AddDate(0, 0, -30), now.AddDate(0, 0, -1))
		require.NoError(t, campaign.Transition(CampaignStatusCompleted, now))
	})
}

func TestCampaignStatus_Terminal(t *testing.T) {
	assert.True(t, CampaignStatusCompleted.IsTerminal())
	assert.True(t, CampaignStatusCancelled.IsTerminal())
	assert.False(t, CampaignStatusDraft.IsTerminal())
	assert.False(t, CampaignStatus("archived").IsValid())
	assert.Empty(t, CampaignStatusCompleted.AllowedTransitions())
}

func TestCampaign_ApplyPatch_FieldLock(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	newType := CampaignTypeGift
	newStart := now.AddDate(0, 0, 1)
	newEnd := now.AddDate(0, 0, 60)

	locked := []struct {
		name  string
		patch CampaignPatch
	}{
		{"type", CampaignPatch{Type: &newType}},
		{"start_date", CampaignPatch{StartDate: &newStart}},
		{"end_date", CampaignPatch{EndDate: &newEnd}},
	}

	for _, status := range allCampaignStatuses {
		for _, tt := range locked {
			t.Run(string(status)+"/"+tt.name, func(t *testing.T) {
				campaign := newTestCampaign(t, status, now, now.AddDate(0, 0, 30))
				before := *campaign

				err := campaign.ApplyPatch(tt.patch)
				if status == CampaignStatusActive {
					assert.True(t, errors.Is(err, domainerrors.ErrFieldLocked), "got %v", err)
					assert.Equal(t, before, *campaign)

					return
				}
				assert.NoError(t, err)
			})
		}
	}
}

func TestCampaign_ApplyPatch_AlwaysPatchable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	name := "Spring Promo"
	description := "double points"
	budget := decimal.NewFromInt(500)
	points := 15

	for _, status := range allCampaignStatuses {
		t.Run(string(status), func(t *testing.T) {
			campaign := newTestCampaign(t, status, now, now.AddDate(0, 0, 30))

			err := campaign.ApplyPatch(CampaignPatch{
				Name:           &name,
				Description:    &description,
				Budget:         &budget,
				Rules:          &CampaignRules{PointsPerCheckin: &points},
				Rewards:        &CampaignRewards{Items: []RewardItem{{Name: "Coffee", PointsCost: 100}}},
				TargetAudience: &TargetAudience{NewCustomersOnly: true},
			})
			require.NoError(t, err)
			assert.Equal(t, name, campaign.Name)
			assert.Equal(t, description, campaign.Description)
			assert.True(t, budget.Equal(*campaign.Budget))
			assert.Equal(t, 15, *campaign.Rules.PointsPerCheckin)
			assert.Len(t, campaign.Rewards.Items, 1)
			assert.True(t, campaign.TargetAudience.NewCustomersOnly)
			assert.Equal(t, status, campaign.Status)
		})
	}
}

func TestCampaign_ApplyPatch_Validation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	empty := ""
	badType := CampaignType("lottery")
	lateStart := now.AddDate(0, 0, 31)
	negative := -5

	tests := []struct {
		name    string
		patch   CampaignPatch
		wantErr error
	}{
		{"empty name", CampaignPatch{Name: &empty}, domainerrors.ErrValidationFailed},
		{"unknown type", CampaignPatch{Type: &badType}, domainerrors.ErrValidationFailed},
		{"start after existing end", CampaignPatch{StartDate: &lateStart}, domainerrors.ErrInvalidDateRange},
		{"negative points", CampaignPatch{Rules: &CampaignRules{PointsPerCheckin: &negative}}, domainerrors.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := newTestCampaign(t, CampaignStatusDraft, now, now.AddDate(0, 0, 30))
			before := *campaign

			err := campaign.ApplyPatch(tt.patch)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, before, *campaign)
		})
	}
}

func TestCampaign_CanDelete(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, status := range allCampaignStatuses {
		t.Run(string(status), func(t *testing.T) {
			campaign := newTestCampaign(t, status, now, now.AddDate(0, 0, 30))

			err := campaign.CanDelete()
			if status == CampaignStatusDraft {
				assert.NoError(t, err)

				return
			}
			assert.True(t, errors.Is(err, domainerrors.ErrDeleteNotAllowed), "got %v", err)
		})
	}
}

func TestCampaign_IsRunningAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)
	campaign := newTestCampaign(t, CampaignStatusActive, start, end)

	assert.True(t, campaign.IsRunningAt(start))
	assert.True(t, campaign.IsRunningAt(end))
	assert.False(t, campaign.IsRunningAt(start.Add(-time.Second)))
	assert.False(t, campaign.IsRunningAt(end.Add(time.Second)))

	campaign.Status = CampaignStatusPaused
	assert.False(t, campaign.IsRunningAt(start.AddDate(0, 0, 1)))
}

func TestComputeCampaignMetrics(t *testing.T) {
	taipei, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)

	alice, bob := uuid.New(), uuid.New()
	limit := 10
	checkins := []*Checkin{
		{UserID: alice, CheckinTime: time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)}, // 2026-03-01 23:30 in Taipei
		{UserID: alice, CheckinTime: time.Date(2026, 3, 1, 16, 30, 0, 0, time.UTC)}, // 2026-03-02 00:30 in Taipei
		{UserID: bob, CheckinTime: time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)},
	}
	qrCodes := []*QRCode{{ScanCount: 4, ScanLimit: &limit}, {ScanCount: 3}}
	now := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	metrics := ComputeCampaignMetrics(checkins, qrCodes, taipei, now)

	assert.Equal(t, int64(7), metrics.TotalScans)
	assert.Equal(t, int64(3), metrics.TotalCheckins)
	assert.Equal(t, int64(2), metrics.UniqueUsers)
	assert.Equal(t, 2, metrics.QRCodes)
	assert.Equal(t, map[string]int64{"2026-03-01": 1, "2026-03-02": 2}, metrics.CheckinsByDate)
	assert.Equal(t, now, metrics.ComputedAt)

	utc := ComputeCampaignMetrics(checkins, qrCodes, nil, now)
	assert.Equal(t, map[string]int64{"2026-03-01": 2, "2026-03-02": 1}, utc.CheckinsByDate)
}

func TestComputeCampaignMetrics_Empty(t *testing.T) {
	metrics := ComputeCampaignMetrics(nil, nil, time.UTC, time.Time{})

	assert.Zero(t, metrics.TotalScans)
	assert.Zero(t, metrics.TotalCheckins)
	assert.Zero(t, metrics.UniqueUsers)
	assert.NotNil(t, metrics.CheckinsByDate)
}
