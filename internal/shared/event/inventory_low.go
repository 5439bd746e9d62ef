package event

const InventoryLowDestination string = "inventory_low_stock"
const InventoryLowConsumerNotification string = "inventory_low_stock_notification"

type InventoryLowMessage struct {
	EventID   string  `json:"event_id"`
	RanchID   int64   `json:"ranch_id"`
	ItemID    int64   `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Quantity  float64 `json:"quantity"`
	Threshold float64 `json:"threshold"`
	Unit      string  `json:"unit"`
}
