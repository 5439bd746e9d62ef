package inbound

import (
	"github.com/hatolabs/hato/internal/notification/usecase"
	"github.com/hatolabs/hato/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// Submit enqueues a notification for delivery.
func (h *HTTPEndpoint) Submit(r *router.Request) (any, error) {
	var req SubmitRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	recipients := make([]usecase.SubmitRecipientInput, 0, len(req.Recipients))
	for _, rcpt := range req.Recipients {
		recipients = append(recipients, usecase.SubmitRecipientInput{
			UserID:     rcpt.UserID,
			Email:      rcpt.Email,
			Phone:      rcpt.Phone,
			WebhookURL: rcpt.WebhookURL,
			Channels:   rcpt.Channels,
		})
	}

	out, err := h.uc.Submit(r.Context(), usecase.SubmitInput{
		Kind:        req.Kind,
		Title:       req.Title,
		Message:     req.Message,
		Priority:    req.Priority,
		Channels:    req.Channels,
		Recipients:  recipients,
		ScheduledAt: req.ScheduledAt,
		ExpiresAt:   req.ExpiresAt,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return SubmitResponse{JobID: out.JobID}, nil
}

// SubmitBulk enqueues a chunked fan-out to a large audience.
func (h *HTTPEndpoint) SubmitBulk(r *router.Request) (any, error) {
	var req SubmitBulkRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	recipients := make([]usecase.SubmitRecipientInput, 0, len(req.Recipients))
	for _, rcpt := range req.Recipients {
		recipients = append(recipients, usecase.SubmitRecipientInput{
			UserID:     rcpt.UserID,
			Email:      rcpt.Email,
			Phone:      rcpt.Phone,
			WebhookURL: rcpt.WebhookURL,
			Channels:   rcpt.Channels,
		})
	}

	out, err := h.uc.SubmitBulk(r.Context(), usecase.SubmitBulkInput{
		Kind:        req.Kind,
		Title:       req.Title,
		Message:     req.Message,
		Priority:    req.Priority,
		Channels:    req.Channels,
		Recipients:  recipients,
		Role:        req.Role,
		RanchID:     req.RanchID,
		ScheduledAt: req.ScheduledAt,
		ExpiresAt:   req.ExpiresAt,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return SubmitBulkResponse{
		BatchID:    out.BatchID,
		JobIDs:     out.JobIDs,
		Chunks:     out.Chunks,
		Recipients: out.Recipients,
	}, nil
}

// CancelJob cancels a pending notification job.
func (h *HTTPEndpoint) CancelJob(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.CancelJob(r.Context(), usecase.CancelJobInput{JobID: id})
}

// JobStatus returns the current state of a job and its delivery log.
func (h *HTTPEndpoint) JobStatus(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.JobStatus(r.Context(), usecase.JobStatusInput{JobID: id})
	if err != nil {
		return nil, err
	}

	resp := JobStatusResponse{
		JobID:       out.JobID,
		BatchID:     out.BatchID,
		Kind:        out.Kind,
		Title:       out.Title,
		Priority:    out.Priority,
		Status:      out.Status,
		Attempts:    out.Attempts,
		MaxAttempts: out.MaxAttempts,
		LastError:   out.LastError,
		ScheduledAt: out.ScheduledAt,
		CreatedAt:   out.CreatedAt,
		UpdatedAt:   out.UpdatedAt,
	}
	if !out.ExpiresAt.IsZero() {
		expiresAt := out.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	for _, dl := range out.Deliveries {
		resp.Deliveries = append(resp.Deliveries, JobDeliveryResponse{
			Channel:   dl.Channel.String(),
			Status:    dl.Status.String(),
			Succeeded: dl.Succeeded,
			Failed:    dl.Failed,
			LastError: dl.LastError,
		})
	}

	return resp, nil
}

// EngineStats returns trailing-window delivery counts and queue depths.
func (h *HTTPEndpoint) EngineStats(r *router.Request) (any, error) {
	return h.uc.EngineStats(r.Context())
}

// ListPreferences returns the caller's notification preferences.
func (h *HTTPEndpoint) ListPreferences(r *router.Request) (any, error) {
	out, err := h.uc.ListPreferences(r.Context())
	if err != nil {
		return nil, err
	}

	resp := PreferencesResponse{MutedKinds: out.MutedKinds}
	if resp.MutedKinds == nil {
		resp.MutedKinds = []string{}
	}
	for _, c := range out.Channels {
		resp.Channels = append(resp.Channels, PreferenceChannelModel{
			Channel:        c.Channel,
			Enabled:        c.Enabled,
			Frequency:      c.Frequency,
			QuietEnabled:   c.QuietEnabled,
			QuietStartHour: c.QuietStartHour,
			QuietEndHour:   c.QuietEndHour,
			QuietTimezone:  c.QuietTimezone,
		})
	}

	return resp, nil
}

// UpdatePreferences replaces the caller's notification preferences.
func (h *HTTPEndpoint) UpdatePreferences(r *router.Request) (any, error) {
	var req UpdatePreferencesRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	channels := make([]usecase.UpdatePreferenceChannelInput, 0, len(req.Channels))
	for _, c := range req.Channels {
		channels = append(channels, usecase.UpdatePreferenceChannelInput{
			Channel:        c.Channel,
			Enabled:        c.Enabled,
			Frequency:      c.Frequency,
			QuietEnabled:   c.QuietEnabled,
			QuietStartHour: c.QuietStartHour,
			QuietEndHour:   c.QuietEndHour,
			QuietTimezone:  c.QuietTimezone,
		})
	}

	return nil, h.uc.UpdatePreferences(r.Context(), usecase.UpdatePreferencesInput{
		Channels:   channels,
		MutedKinds: req.MutedKinds,
	})
}

// DeviceRegister registers a device token for push notifications.
func (h *HTTPEndpoint) DeviceRegister(r *router.Request) (any, error) {
	var req RegisterDeviceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.DeviceRegister(r.Context(), usecase.DeviceRegisterInput{
		DeviceToken: req.DeviceToken,
		Platform:    req.Platform,
	})
}

// DeviceRemove removes a device token.
func (h *HTTPEndpoint) DeviceRemove(r *router.Request) (any, error) {
	var req RemoveDeviceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.DeviceRemove(r.Context(), usecase.DeviceRemoveInput{DeviceToken: req.DeviceToken})
}

// ListInbox returns the caller's in-app notifications.
func (h *HTTPEndpoint) ListInbox(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.ListInbox(r.Context(), usecase.ListInboxInput{
		Status: r.GetQuery("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	resp := InboxResponse{UnreadCount: out.UnreadCount, Items: make([]InboxItemResponse, 0, len(out.Items))}
	for _, item := range out.Items {
		resp.Items = append(resp.Items, InboxItemResponse{
			ID:        item.ID,
			JobID:     item.JobID,
			Kind:      item.Kind.String(),
			Priority:  item.Priority.String(),
			Title:     item.Title,
			Message:   item.Message,
			Metadata:  item.Metadata,
			ReadAt:    item.ReadAt,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}

// MarkInboxRead marks a single inbox item as read.
func (h *HTTPEndpoint) MarkInboxRead(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.MarkInboxRead(r.Context(), usecase.InboxActionInput{ItemID: id})
}

// MarkInboxReadAll marks every unread inbox item as read.
func (h *HTTPEndpoint) MarkInboxReadAll(r *router.Request) (any, error) {
	updated, err := h.uc.MarkInboxReadAll(r.Context())
	if err != nil {
		return nil, err
	}

	return InboxReadAllResponse{Updated: updated}, nil
}

// DeleteInboxItem soft-deletes one inbox item.
func (h *HTTPEndpoint) DeleteInboxItem(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.DeleteInboxItem(r.Context(), usecase.InboxActionInput{ItemID: id})
}
