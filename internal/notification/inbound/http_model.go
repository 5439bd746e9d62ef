package inbound

import (
	"time"

	"github.com/hatolabs/hato/internal/pkg/valueobject"
)

type SubmitRecipientRequest struct {
	UserID     int64    `json:"user_id"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	WebhookURL string   `json:"webhook_url,omitempty"`
	Channels   []string `json:"channels,omitempty"`
}

type SubmitRequest struct {
	Kind        string                   `json:"kind"`
	Title       string                   `json:"title"`
	Message     string                   `json:"message"`
	Priority    string                   `json:"priority,omitempty"`
	Channels    []string                 `json:"channels"`
	Recipients  []SubmitRecipientRequest `json:"recipients"`
	ScheduledAt *time.Time               `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time               `json:"expires_at,omitempty"`
	Metadata    valueobject.JSONMap      `json:"metadata,omitempty"`
}

type SubmitResponse struct {
	JobID int64 `json:"job_id,string"`
}

type SubmitBulkRequest struct {
	Kind        string                   `json:"kind"`
	Title       string                   `json:"title"`
	Message     string                   `json:"message"`
	Priority    string                   `json:"priority,omitempty"`
	Channels    []string                 `json:"channels"`
	Recipients  []SubmitRecipientRequest `json:"recipients,omitempty"`
	Role        string                   `json:"role,omitempty"`
	RanchID     int64                    `json:"ranch_id,omitempty"`
	ScheduledAt *time.Time               `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time               `json:"expires_at,omitempty"`
	Metadata    valueobject.JSONMap      `json:"metadata,omitempty"`
}

type SubmitBulkResponse struct {
	BatchID    string  `json:"batch_id"`
	JobIDs     []int64 `json:"job_ids"`
	Chunks     int     `json:"chunks"`
	Recipients int     `json:"recipients"`
}

type JobDeliveryResponse struct {
	Channel   string `json:"channel"`
	Status    string `json:"status"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

type JobStatusResponse struct {
	JobID       int64                 `json:"job_id,string"`
	BatchID     string                `json:"batch_id,omitempty"`
	Kind        string                `json:"kind"`
	Title       string                `json:"title"`
	Priority    string                `json:"priority"`
	Status      string                `json:"status"`
	Attempts    int                   `json:"attempts"`
	MaxAttempts int                   `json:"max_attempts"`
	LastError   string                `json:"last_error,omitempty"`
	ScheduledAt time.Time             `json:"scheduled_at"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Deliveries  []JobDeliveryResponse `json:"deliveries,omitempty"`
}

type PreferenceChannelModel struct {
	Channel        string `json:"channel"`
	Enabled        bool   `json:"enabled"`
	Frequency      string `json:"frequency"`
	QuietEnabled   bool   `json:"quiet_enabled"`
	QuietStartHour int    `json:"quiet_start_hour"`
	QuietEndHour   int    `json:"quiet_end_hour"`
	QuietTimezone  string `json:"quiet_timezone,omitempty"`
}

type PreferencesResponse struct {
	Channels   []PreferenceChannelModel `json:"channels"`
	MutedKinds []string                 `json:"muted_kinds"`
}

type UpdatePreferencesRequest struct {
	Channels   []PreferenceChannelModel `json:"channels"`
	MutedKinds []string                 `json:"muted_kinds,omitempty"`
}

type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token"`
	Platform    string `json:"platform"`
}

type RemoveDeviceRequest struct {
	DeviceToken string `json:"device_token"`
}

type InboxItemResponse struct {
	ID        int64               `json:"id,string"`
	JobID     int64               `json:"job_id,string"`
	Kind      string              `json:"kind"`
	Priority  string              `json:"priority"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Metadata  valueobject.JSONMap `json:"metadata,omitempty"`
	ReadAt    *time.Time          `json:"read_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type InboxResponse struct {
	Items       []InboxItemResponse `json:"items"`
	UnreadCount int64               `json:"unread_count"`
}

type InboxReadAllResponse struct {
	Updated int64 `json:"updated"`
}
