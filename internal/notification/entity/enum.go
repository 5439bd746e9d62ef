package entity

import (
	"strings"
)

type Channel int16

const (
	ChannelUnknown  Channel = 0
	ChannelInApp    Channel = 1
	ChannelEmail    Channel = 2
	ChannelSMS      Channel = 3
	ChannelPush     Channel = 4
	ChannelWhatsApp Channel = 5
	ChannelWebhook  Channel = 6
)

func ChannelFromString(raw string) Channel {
	switch strings.TrimSpace(raw) {
	case "in_app":
		return ChannelInApp
	case "email":
		return ChannelEmail
	case "sms":
		return ChannelSMS
	case "push":
		return ChannelPush
	case "whatsapp":
		return ChannelWhatsApp
	case "webhook":
		return ChannelWebhook
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelInApp:
		return "in_app"
	case ChannelEmail:
		return "email"
	case ChannelSMS:
		return "sms"
	case ChannelPush:
		return "push"
	case ChannelWhatsApp:
		return "whatsapp"
	case ChannelWebhook:
		return "webhook"
	default:
		return "unknown"
	}
}

// AllChannels lists every deliverable channel in a stable order.
func AllChannels() []Channel {
	return []Channel{
		ChannelInApp,
		ChannelEmail,
		ChannelSMS,
		ChannelPush,
		ChannelWhatsApp,
		ChannelWebhook,
	}
}

// DefaultEnabled reports whether the channel is opted in for users
// without a stored preference. Interruptive channels require an
// explicit opt-in.
func (c Channel) DefaultEnabled() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelPush:
		return true
	default:
		return false
	}
}

type Priority int16

const (
	PriorityUnknown  Priority = 0
	PriorityLow      Priority = 1
	PriorityMedium   Priority = 2
	PriorityHigh     Priority = 3
	PriorityCritical Priority = 4
)

func PriorityFromString(raw string) Priority {
	switch strings.TrimSpace(raw) {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityUnknown
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type Kind int16

const (
	KindUnknown        Kind = 0
	KindHealthAlert    Kind = 1
	KindVaccinationDue Kind = 2
	KindInventoryAlert Kind = 3
	KindGeofenceAlert  Kind = 4
	KindSystem         Kind = 5
)

func KindFromString(raw string) Kind {
	switch strings.TrimSpace(raw) {
	case "health_alert":
		return KindHealthAlert
	case "vaccination_due":
		return KindVaccinationDue
	case "inventory_alert":
		return KindInventoryAlert
	case "geofence_alert":
		return KindGeofenceAlert
	case "system":
		return KindSystem
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindHealthAlert:
		return "health_alert"
	case KindVaccinationDue:
		return "vaccination_due"
	case KindInventoryAlert:
		return "inventory_alert"
	case KindGeofenceAlert:
		return "geofence_alert"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

type JobStatus int16

const (
	JobStatusUnknown    JobStatus = 0
	JobStatusPending    JobStatus = 1
	JobStatusProcessing JobStatus = 2
	JobStatusSent       JobStatus = 3
	JobStatusDelivered  JobStatus = 4
	JobStatusRead       JobStatus = 5
	JobStatusFailed     JobStatus = 6
	JobStatusCancelled  JobStatus = 7
	JobStatusExpired    JobStatus = 8
)

func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusProcessing:
		return "processing"
	case JobStatusSent:
		return "sent"
	case JobStatusDelivered:
		return "delivered"
	case JobStatusRead:
		return "read"
	case JobStatusFailed:
		return "failed"
	case JobStatusCancelled:
		return "cancelled"
	case JobStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the dispatch lifecycle.
// Sent is terminal for the queue even though delivery receipts may
// still advance it to delivered or read.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSent, JobStatusDelivered, JobStatusRead,
		JobStatusFailed, JobStatusCancelled, JobStatusExpired:
		return true
	default:
		return false
	}
}

type Frequency int16

const (
	FrequencyInstant Frequency = 0
	FrequencyHourly  Frequency = 1
	FrequencyDaily   Frequency = 2
	FrequencyWeekly  Frequency = 3
	FrequencyMonthly Frequency = 4
)

func FrequencyFromString(raw string) Frequency {
	switch strings.TrimSpace(raw) {
	case "hourly":
		return FrequencyHourly
	case "daily":
		return FrequencyDaily
	case "weekly":
		return FrequencyWeekly
	case "monthly":
		return FrequencyMonthly
	default:
		return FrequencyInstant
	}
}

func (f Frequency) String() string {
	switch f {
	case FrequencyHourly:
		return "hourly"
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyMonthly:
		return "monthly"
	default:
		return "instant"
	}
}
