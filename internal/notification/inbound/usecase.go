package inbound

import (
	"context"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumeHealthAlert(ctx context.Context, in usecase.ConsumeHealthAlertInput) error
	ConsumeVaccinationDue(ctx context.Context, in usecase.ConsumeVaccinationDueInput) error
	ConsumeInventoryLow(ctx context.Context, in usecase.ConsumeInventoryLowInput) error
	ConsumeGeofenceExit(ctx context.Context, in usecase.ConsumeGeofenceExitInput) error
}

type ucStream interface {
	StreamInbox(ctx context.Context, userID int64) <-chan usecase.InboxEvent
	StreamLifecycle(ctx context.Context) <-chan engine.Event
}

type uc interface {
	ucConsumer
	ucStream

	Submit(ctx context.Context, in usecase.SubmitInput) (*usecase.SubmitOutput, error)
	SubmitBulk(ctx context.Context, in usecase.SubmitBulkInput) (*usecase.SubmitBulkOutput, error)
	CancelJob(ctx context.Context, in usecase.CancelJobInput) error
	JobStatus(ctx context.Context, in usecase.JobStatusInput) (*usecase.JobStatusOutput, error)
	EngineStats(ctx context.Context) (*engine.Snapshot, error)

	ListPreferences(ctx context.Context) (*usecase.ListPreferencesOutput, error)
	UpdatePreferences(ctx context.Context, in usecase.UpdatePreferencesInput) error

	DeviceRegister(ctx context.Context, in usecase.DeviceRegisterInput) error
	DeviceRemove(ctx context.Context, in usecase.DeviceRemoveInput) error

	ListInbox(ctx context.Context, in usecase.ListInboxInput) (*usecase.ListInboxOutput, error)
	MarkInboxRead(ctx context.Context, in usecase.InboxActionInput) error
	MarkInboxReadAll(ctx context.Context) (int64, error)
	DeleteInboxItem(ctx context.Context, in usecase.InboxActionInput) error
}
