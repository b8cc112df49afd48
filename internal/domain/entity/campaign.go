package entity

import (
	"slices"
	"strings"
	"time"

	domainerrors "loyalty/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CampaignStatus is a state of the campaign lifecycle.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// campaignTransitions lists the allowed targets of each status. Completed and cancelled are terminal.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:     {CampaignStatusActive, CampaignStatusCancelled},
	CampaignStatusActive:    {CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled},
	CampaignStatusPaused:    {CampaignStatusActive, CampaignStatusCompleted, CampaignStatusCancelled},
	CampaignStatusCompleted: {},
	CampaignStatusCancelled: {},
}

// IsValid checks if the status is a known value.
func (s CampaignStatus) IsValid() bool {
	_, ok := campaignTransitions[s]

	return ok
}

// IsTerminal reports whether no transition leaves this status.
func (s CampaignStatus) IsTerminal() bool {
	return s.IsValid() && len(campaignTransitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s in one step.
func (s CampaignStatus) AllowedTransitions() []CampaignStatus {
	return slices.Clone(campaignTransitions[s])
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s CampaignStatus) CanTransitionTo(target CampaignStatus) bool {
	return slices.Contains(campaignTransitions[s], target)
}

// CampaignType decides how a campaign rewards check-ins.
type CampaignType string

const (
	CampaignTypePoints   CampaignType = "points"
	CampaignTypeDiscount CampaignType = "discount"
	CampaignTypeGift     CampaignType = "gift"
	CampaignTypeTrial    CampaignType = "trial"
	CampaignTypeOther    CampaignType = "other"
)

// IsValid checks if the type is a known value.
func (t CampaignType) IsValid() bool {
	switch t {
	case CampaignTypePoints, CampaignTypeDiscount, CampaignTypeGift, CampaignTypeTrial, CampaignTypeOther:
		return true
	default:
		return false
	}
}

// CampaignRules is the points policy of a campaign.
type CampaignRules struct {
	PointsPerCheckin  *int `json:"points_per_checkin,omitempty"`  // Falls back to the points_per_checkin setting.
	FirstCheckinBonus int  `json:"first_checkin_bonus,omitempty"` // Added on a user's first valid check-in at the store.
	StreakDays        int  `json:"streak_days,omitempty"`         // Streak length that earns StreakBonus; 0 disables it.
	StreakBonus       int  `json:"streak_bonus,omitempty"`
}

// Validate rejects negative amounts.
func (r *CampaignRules) Validate() error {
	if r == nil {
		return nil
	}
	if r.PointsPerCheckin != nil && *r.PointsPerCheckin < 0 {
		return domainerrors.ErrValidationFailed.WithDetails("points_per_checkin must not be negative")
	}
	if r.FirstCheckinBonus < 0 || r.StreakBonus < 0 || r.StreakDays < 0 {
		return domainerrors.ErrValidationFailed.WithDetails("bonus rules must not be negative")
	}

	return nil
}

// RewardItem is something a customer can redeem with points.
type RewardItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PointsCost  int    `json:"points_cost"`
}

// CampaignRewards is the reward catalogue of a campaign.
type CampaignRewards struct {
	Items []RewardItem `json:"items,omitempty"`
}

// TargetAudience narrows who a campaign is advertised to.
type TargetAudience struct {
	NewCustomersOnly bool     `json:"new_customers_only,omitempty"`
	MinCheckins      int      `json:"min_checkins,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// Campaign is a time-bounded promotional program of one merchant.
type Campaign struct {
	ID             uuid.UUID        `json:"id"`
	MerchantID     uuid.UUID        `json:"merchant_id"`
	StoreID        *uuid.UUID       `json:"store_id,omitempty"`
	CreatedBy      uuid.UUID        `json:"created_by"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Type           CampaignType     `json:"type"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	Timezone       string           `json:"timezone,omitempty"` // IANA zone for date bucketing; empty means UTC.
	Status         CampaignStatus   `json:"status"`
	Rules          CampaignRules    `json:"rules"`
	Rewards        CampaignRewards  `json:"rewards"`
	TargetAudience *TargetAudience  `json:"target_audience,omitempty"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	Spent          decimal.Decimal  `json:"spent"`
	Metrics        *CampaignMetrics `json:"metrics,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewCampaignInput carries the fields accepted at creation.
type NewCampaignInput struct {
	MerchantID     uuid.UUID
	StoreID        *uuid.UUID
	CreatedBy      uuid.UUID
	Name           string
	Description    string
	Type           CampaignType
	StartDate      time.Time
	EndDate        time.Time
	Timezone       string
	Rules          CampaignRules
	Rewards        CampaignRewards
	TargetAudience *TargetAudience
	Budget         *decimal.Decimal
}

// NewCampaign validates the input and returns a draft campaign with nothing spent.
func NewCampaign(input NewCampaignInput) (*Campaign, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("name is required")
	}
	if !input.Type.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown campaign type " + string(input.Type))
	}
	if !input.StartDate.Before(input.EndDate) {
		return nil, domainerrors.ErrInvalidDateRange
	}
	if err := input.Rules.Validate(); err != nil {
		return nil, err
	}
	if err := validateBudget(input.Budget); err != nil {
		return nil, err
	}
	if err := validateTimezone(input.Timezone); err != nil {
		return nil, err
	}

	return &Campaign{
		MerchantID:     input.MerchantID,
		StoreID:        input.StoreID,
		CreatedBy:      input.CreatedBy,
		Name:           name,
		Description:    input.Description,
		Type:           input.Type,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Timezone:       input.Timezone,
		Status:         CampaignStatusDraft,
		Rules:          input.Rules,
		Rewards:        input.Rewards,
		TargetAudience: input.TargetAudience,
		Budget:         input.Budget,
		Spent:          decimal.Zero,
	}, nil
}

// Transition moves the campaign to target. Only the status changes.
func (c *Campaign) Transition(target CampaignStatus, now time.Time) error {
	if !c.Status.CanTransitionTo(target) {
		return domainerrors.ErrInvalidTransition.WithDetails(string(c.Status) + " -> " + string(target))
	}
	if target == CampaignStatusActive && now.After(c.EndDate) {
		return domainerrors.ErrExpiredCampaign
	}

	c.Status = target

	return nil
}

// CampaignPatch is a partial update. Nil fields are left untouched.
type CampaignPatch struct {
	Name           *string
	Description    *string
	Type           *CampaignType
	StartDate      *time.Time
	EndDate        *time.Time
	Rules          *CampaignRules
	Rewards        *CampaignRewards
	TargetAudience *TargetAudience
	Budget         *decimal.Decimal
}

// LockedFields names the patched fields that an active campaign refuses.
func (p CampaignPatch) LockedFields() []string {
	var fields []string
	if p.Type != nil {
		fields = append(fields, "type")
	}
	if p.StartDate != nil {
		fields = append(fields, "start_date")
	}
	if p.EndDate != nil {
		fields = append(fields, "end_date")
	}

	return fields
}

// ApplyPatch validates and applies patch. The campaign is unchanged when an error is returned.
func (c *Campaign) ApplyPatch(patch CampaignPatch) error {
	if c.Status == CampaignStatusActive {
		if locked := patch.LockedFields(); len(locked) > 0 {
			return domainerrors.ErrFieldLocked.WithDetails(strings.Join(locked, ","))
		}
	}

	name := c.Name
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return domainerrors.ErrValidationFailed.WithDetails("name is required")
		}
	}
	if patch.Type != nil && !patch.Type.IsValid() {
		return domainerrors.ErrValidationFailed.WithDetails("unknown campaign type " + string(*patch.Type))
	}

	start, end := c.StartDate, c.EndDate
	if patch.StartDate != nil {
		start = *patch.StartDate
	}
	if patch.EndDate != nil {
		end = *patch.EndDate
	}
	if !start.Before(end) {
		return domainerrors.ErrInvalidDateRange
	}
	if err := patch.Rules.Validate(); err != nil {
		return err
	}
	if err := validateBudget(patch.Budget); err != nil {
		return err
	}

	c.Name = name
	c.StartDate, c.EndDate = start, end
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.Rules != nil {
		c.Rules = *patch.Rules
	}
	if patch.Rewards != nil {
		c.Rewards = *patch.Rewards
	}
	if patch.TargetAudience != nil {
		c.TargetAudience = patch.TargetAudience
	}
	if patch.Budget != nil {
		budget := *patch.Budget
		c.Budget = &budget
	}

	return nil
}

// CanDelete returns ErrDeleteNotAllowed unless the campaign is still a draft.
func (c *Campaign) CanDelete() error {
	if c.Status != CampaignStatusDraft {
		return domainerrors.ErrDeleteNotAllowed.WithDetails("status is " + string(c.Status))
	}

	return nil
}

// IsRunningAt reports whether the campaign is active and now lies within [StartDate, EndDate].
func (c *Campaign) IsRunningAt(now time.Time) bool {
	return c.Status == CampaignStatusActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Location returns the campaign's zone, UTC when unset or unknown.
func (c *Campaign) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

func validateBudget(budget *decimal.Decimal) error {
	if budget != nil && budget.IsNegative() {
		return domainerrors.ErrValidationFailed.WithDetails("budget must not be negative")
	}

	return nil
}

func validateTimezone(name string) error {
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("unknown timezone " + name)
	}

	return nil
}
