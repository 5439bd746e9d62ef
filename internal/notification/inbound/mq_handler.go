package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hatolabs/hato/internal/notification/usecase"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/hatolabs/hato/internal/pkg/messaging"
	"github.com/hatolabs/hato/internal/pkg/uid"
	"github.com/hatolabs/hato/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) HealthAlertNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "HealthAlertNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: herd health alert", "msg_body", string(body))

	var payload event.HealthAlertMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of herd health alert", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeHealthAlert(ctx, usecase.ConsumeHealthAlertInput{
		EventID:  payload.EventID,
		RanchID:  payload.RanchID,
		BovineID: payload.BovineID,
		EarTag:   payload.EarTag,
		Symptom:  payload.Symptom,
		Severity: payload.Severity,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume herd health alert", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) VaccinationDueNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "VaccinationDueNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: vaccination due", "msg_body", string(body))

	var payload event.VaccinationDueMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of vaccination due", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeVaccinationDue(ctx, usecase.ConsumeVaccinationDueInput{
		EventID:  payload.EventID,
		RanchID:  payload.RanchID,
		BovineID: payload.BovineID,
		EarTag:   payload.EarTag,
		Vaccine:  payload.Vaccine,
		DueDate:  payload.DueDate,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume vaccination due", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) InventoryLowNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "InventoryLowNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: inventory low stock", "msg_body", string(body))

	var payload event.InventoryLowMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of inventory low stock", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeInventoryLow(ctx, usecase.ConsumeInventoryLowInput{
		EventID:   payload.EventID,
		RanchID:   payload.RanchID,
		ItemID:    payload.ItemID,
		ItemName:  payload.ItemName,
		Quantity:  payload.Quantity,
		Threshold: payload.Threshold,
		Unit:      payload.Unit,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume inventory low stock", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) GeofenceExitNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "GeofenceExitNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: geofence exit", "msg_body", string(body))

	var payload event.GeofenceExitMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of geofence exit", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeGeofenceExit(ctx, usecase.ConsumeGeofenceExitInput{
		EventID:   payload.EventID,
		RanchID:   payload.RanchID,
		BovineID:  payload.BovineID,
		EarTag:    payload.EarTag,
		FenceName: payload.FenceName,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume geofence exit", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
