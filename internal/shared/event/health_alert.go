package event

const HealthAlertDestination string = "herd_health_alert"
const HealthAlertConsumerNotification string = "herd_health_alert_notification"

type HealthAlertMessage struct {
	EventID  string `json:"event_id"`
	RanchID  int64  `json:"ranch_id"`
	BovineID int64  `json:"bovine_id"`
	EarTag   string `json:"ear_tag"`
	Symptom  string `json:"symptom"`
	Severity string `json:"severity"`
}
