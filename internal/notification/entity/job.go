package entity

import (
	"slices"
	"time"

	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

// Recipient describes one delivery target of a job. Channels starts as
// an optional per-recipient override of the job's channel set; after
// the preference filter runs it holds the channels the recipient has
// actually opted into.
type Recipient struct {
	UserID       int64
	Email        string
	Phone        string
	DeviceTokens []string
	WebhookURL   string
	Channels     []Channel
}

// WantsChannel reports whether the recipient accepts the given channel.
// An empty channel list means "no override", i.e. every job channel.
func (r Recipient) WantsChannel(ch Channel) bool {
	if len(r.Channels) == 0 {
		return true
	}
	return slices.Contains(r.Channels, ch)
}

// Job is one unit of notification work: a rendered payload targeting
// one or more recipients across one or more channels.
type Job struct {
	ID          int64
	BatchID     string
	Kind        Kind
	Title       string
	Message     string
	Priority    Priority
	Channels    []Channel
	Recipients  []Recipient
	ScheduledAt time.Time
	ExpiresAt   time.Time
	Status      JobStatus
	Attempts    int
	MaxAttempts int
	LastError   string
	Payload     Payload
	Metadata    valueobject.JSONMap
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the job passed its expiry deadline at t.
func (j *Job) Expired(t time.Time) bool {
	return !j.ExpiresAt.IsZero() && j.ExpiresAt.Before(t)
}

// Eligible reports whether the job may be dispatched at t.
func (j *Job) Eligible(t time.Time) bool {
	return j.Status == JobStatusPending && !j.ScheduledAt.After(t)
}

// ChannelOutcome aggregates per-channel send results of one dispatch.
type ChannelOutcome struct {
	Channel   Channel
	Succeeded int
	Failed    int
	LastError string
}

// DispatchResult is the outcome of fanning one job out to its channels.
type DispatchResult struct {
	JobID    int64
	Outcomes []ChannelOutcome
}

// Succeeded reports whether at least one channel/recipient send worked.
func (d DispatchResult) Succeeded() bool {
	for _, o := range d.Outcomes {
		if o.Succeeded > 0 {
			return true
		}
	}
	return false
}

// FirstError returns one representative failure message, if any.
func (d DispatchResult) FirstError() string {
	for _, o := range d.Outcomes {
		if o.LastError != "" {
			return o.LastError
		}
	}
	return ""
}

// InboxItem is one in-app feed entry for a user.
type InboxItem struct {
	ID        int64
	UserID    int64
	JobID     int64
	Kind      Kind
	Priority  Priority
	Title     string
	Message   string
	Metadata  valueobject.JSONMap
	ReadAt    *time.Time
	CreatedAt time.Time
}

// InboxStatus filters inbox listings.
type InboxStatus string

const (
	InboxStatusAll    InboxStatus = "all"
	InboxStatusUnread InboxStatus = "unread"
	InboxStatusRead   InboxStatus = "read"
)
