package enums

// NotificationType categorizes lifecycle notifications shown in the feeds.
type NotificationType string

const (
	NotificationTypeOrderPlaced         NotificationType = "ORDER_PLACED"
	NotificationTypeOrderConfirmed      NotificationType = "ORDER_CONFIRMED"
	NotificationTypeOrderPacked         NotificationType = "ORDER_PACKED"
	NotificationTypeOrderOutForDelivery NotificationType = "ORDER_OUT_FOR_DELIVERY"
	NotificationTypeOrderDelivered      NotificationType = "ORDER_DELIVERED"
	NotificationTypeLowStock            NotificationType = "LOW_STOCK"
)
