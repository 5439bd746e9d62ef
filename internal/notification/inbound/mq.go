package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/hatolabs/hato/internal/pkg/config"
	"github.com/hatolabs/hato/internal/pkg/goroutine"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/hatolabs/hato/internal/pkg/messaging"
	"github.com/hatolabs/hato/internal/pkg/uid"
	"github.com/hatolabs/hato/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.HealthAlertConsumerNotification,
			topic:   event.HealthAlertDestination,
			handler: mqHandler.HealthAlertNotification,
		},
		{
			name:    event.VaccinationDueConsumerNotification,
			topic:   event.VaccinationDueDestination,
			handler: mqHandler.VaccinationDueNotification,
		},
		{
			name:    event.InventoryLowConsumerNotification,
			topic:   event.InventoryLowDestination,
			handler: mqHandler.InventoryLowNotification,
		},
		{
			name:    event.GeofenceExitConsumerNotification,
			topic:   event.GeofenceExitDestination,
			handler: mqHandler.GeofenceExitNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.name),
					messaging.WithQueueGroup(consumer.name),
					messaging.WithGroup(consumer.name),
					messaging.WithSubscription(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
