package event

const VaccinationDueDestination string = "vaccination_due"
const VaccinationDueConsumerNotification string = "vaccination_due_notification"

type VaccinationDueMessage struct {
	EventID  string `json:"event_id"`
	RanchID  int64  `json:"ranch_id"`
	BovineID int64  `json:"bovine_id"`
	EarTag   string `json:"ear_tag"`
	Vaccine  string `json:"vaccine"`
	DueDate  string `json:"due_date"`
}
