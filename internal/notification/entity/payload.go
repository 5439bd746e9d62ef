package entity

import (
	"time"
)

// Payload carries the kind-specific fields of a notification as a
// typed variant instead of an open map, so consumers know statically
// which fields each kind provides.
type Payload interface {
	PayloadKind() Kind
}

type HealthAlertPayload struct {
	BovineID int64  `json:"bovine_id"`
	EarTag   string `json:"ear_tag"`
	Symptom  string `json:"symptom"`
	Severity string `json:"severity"`
}

func (HealthAlertPayload) PayloadKind() Kind { return KindHealthAlert }

type VaccinationDuePayload struct {
	BovineID int64     `json:"bovine_id"`
	EarTag   string    `json:"ear_tag"`
	Vaccine  string    `json:"vaccine"`
	DueDate  time.Time `json:"due_date"`
}

func (VaccinationDuePayload) PayloadKind() Kind { return KindVaccinationDue }

type InventoryAlertPayload struct {
	ItemID    int64   `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Quantity  float64 `json:"quantity"`
	Threshold float64 `json:"threshold"`
	Unit      string  `json:"unit"`
}

func (InventoryAlertPayload) PayloadKind() Kind { return KindInventoryAlert }

type GeofenceAlertPayload struct {
	BovineID  int64   `json:"bovine_id"`
	EarTag    string  `json:"ear_tag"`
	FenceName string  `json:"fence_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (GeofenceAlertPayload) PayloadKind() Kind { return KindGeofenceAlert }

type SystemPayload struct {
	Note string `json:"note"`
}

func (SystemPayload) PayloadKind() Kind { return KindSystem }
