// Package constants holds configuration values shared across layers.
package constants

// Pub/Sub providers accepted by pubsub.provider.
const (
	PubSubProviderNone   = "none"
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Campaign list cache drivers accepted by cache.driver.
const (
	CacheDriverNone   = "none"
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// Transaction isolation levels accepted by checkin.isolation.
const (
	IsolationSerializable   = "serializable"
	IsolationReadCommitted  = "read_committed"
	IsolationRepeatableRead = "repeatable_read"
)

// CheckinRecordedEvent is the event type attribute of published check-ins.
const CheckinRecordedEvent = "checkin.recorded"

// Deployment environments accepted by env.env. Push authentication is skipped in both.
const (
	EnvLocal   = "local"
	EnvDevelop = "develop"
)
