package usecase

import (
	"context"
	"testing"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthAlertInput(severity string) ConsumeHealthAlertInput {
	return ConsumeHealthAlertInput{
		EventID:  "evt-1",
		RanchID:  5,
		BovineID: 42,
		EarTag:   "NL-4821",
		Symptom:  "lameness",
		Severity: severity,
	}
}

func TestConsumeHealthAlert(t *testing.T) {
	roles := map[string][]entity.Recipient{
		"veterinarian":  {{UserID: 10}, {UserID: 11}},
		"ranch_manager": {{UserID: 11}, {UserID: 12}},
	}

	t.Run("NotifiesVetsAndManagers", func(t *testing.T) {
		eng := &stubEngine{}
		uc, idem := newTestUsecase(t, &stubRepo{byRole: roles}, &stubPrefStore{}, eng)

		require.NoError(t, uc.ConsumeHealthAlert(context.Background(), healthAlertInput("high")))

		got := eng.lastSubmitted(t)
		assert.Equal(t, entity.KindHealthAlert, got.Kind)
		assert.Equal(t, entity.PriorityHigh, got.Priority)
		assert.NotContains(t, got.Channels, entity.ChannelSMS)

		var userIDs []int64
		for _, rcpt := range got.Recipients {
			userIDs = append(userIDs, rcpt.UserID)
		}
		assert.Equal(t, []int64{10, 11, 12}, userIDs, "user 11 holds both roles but is notified once")

		assert.Equal(t, []string{"notification:health_alert:evt-1"}, idem.keys)
	})

	t.Run("CriticalSeverityEscalates", func(t *testing.T) {
		eng := &stubEngine{}
		uc, _ := newTestUsecase(t, &stubRepo{byRole: roles}, &stubPrefStore{}, eng)

		require.NoError(t, uc.ConsumeHealthAlert(context.Background(), healthAlertInput("critical")))

		got := eng.lastSubmitted(t)
		assert.Equal(t, entity.PriorityCritical, got.Priority)
		assert.Contains(t, got.Channels, entity.ChannelSMS)
	})

	t.Run("InvalidPayloadDroppedWithoutError", func(t *testing.T) {
		// a malformed event must not be redelivered forever
		eng := &stubEngine{}
		uc, _ := newTestUsecase(t, &stubRepo{byRole: roles}, &stubPrefStore{}, eng)

		in := healthAlertInput("high")
		in.EarTag = ""

		require.NoError(t, uc.ConsumeHealthAlert(context.Background(), in))
		assert.Empty(t, eng.submitted)
	})

	t.Run("NoRecipients", func(t *testing.T) {
		eng := &stubEngine{}
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, eng)

		require.NoError(t, uc.ConsumeHealthAlert(context.Background(), healthAlertInput("high")))
		assert.Empty(t, eng.submitted)
	})
}
