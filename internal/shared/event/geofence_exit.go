package event

const GeofenceExitDestination string = "geofence_exit"
const GeofenceExitConsumerNotification string = "geofence_exit_notification"

type GeofenceExitMessage struct {
	EventID   string  `json:"event_id"`
	RanchID   int64   `json:"ranch_id"`
	BovineID  int64   `json:"bovine_id"`
	EarTag    string  `json:"ear_tag"`
	FenceName string  `json:"fence_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
