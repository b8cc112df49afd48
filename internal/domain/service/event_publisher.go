package service

import (
	"context"
	"time"
)

// CheckinEvent is published after a check-in commits.
type CheckinEvent struct {
	RequestID    string    `json:"request_id,omitempty"` // For distributed tracing
	CheckinID    string    `json:"checkin_id"`
	UserID       string    `json:"user_id"`
	StoreID      string    `json:"store_id"`
	MerchantID   string    `json:"merchant_id"`
	CampaignID   string    `json:"campaign_id,omitempty"`
	PointsEarned int       `json:"points_earned"`
	CheckinTime  time.Time `json:"checkin_time"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishCheckinEvent publishes a recorded check-in for downstream consumers
	PublishCheckinEvent(ctx context.Context, event *CheckinEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
