package notifications

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// orderRef renders the short order reference customers see in the UI.
func orderRef(orderID uuid.UUID) string {
	return orderID.String()[:8]
}

func customerOrderPlacedMessage(orderID uuid.UUID) string {
	return fmt.Sprintf("Your order #%s has been placed successfully", orderRef(orderID))
}

func adminOrderPlacedMessage(orderID uuid.UUID, customerName string) string {
	return fmt.Sprintf("New order #%s received from %s", orderRef(orderID), customerName)
}

func customerStatusMessage(orderID uuid.UUID, status enums.OrderStatus) (enums.NotificationType, string) {
	ref := orderRef(orderID)
	switch status {
	case enums.OrderStatusConfirmed:
		return enums.NotificationTypeOrderConfirmed,
			fmt.Sprintf("Your order #%s has been confirmed", ref)
	case enums.OrderStatusPacked:
		return enums.NotificationTypeOrderPacked,
			fmt.Sprintf("Your order #%s has been packed and is ready for delivery", ref)
	case enums.OrderStatusOutForDelivery:
		return enums.NotificationTypeOrderOutForDelivery,
			fmt.Sprintf("Your order #%s is out for delivery", ref)
	case enums.OrderStatusDelivered:
		return enums.NotificationTypeOrderDelivered,
			fmt.Sprintf("Your order #%s has been delivered", ref)
	}
	return "", ""
}

func adminOrderDeliveredMessage(orderID uuid.UUID) string {
	return fmt.Sprintf("Order #%s delivered successfully", orderRef(orderID))
}

func adminLowStockMessage(itemName string, remaining int) string {
	return fmt.Sprintf("Low stock alert: %s (%d items left)", itemName, remaining)
}
