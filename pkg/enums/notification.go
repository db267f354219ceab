package enums

import "fmt"

// NotificationCategory maps to the notification_category enum in Postgres.
type NotificationCategory string

const (
	NotificationCategoryOrder  NotificationCategory = "order"
	NotificationCategoryStatus NotificationCategory = "status"
	NotificationCategoryInfo   NotificationCategory = "info"
	NotificationCategoryAlert  NotificationCategory = "alert"
	NotificationCategoryCoupon NotificationCategory = "coupon"
)

var validNotificationCategories = []NotificationCategory{
	NotificationCategoryOrder,
	NotificationCategoryStatus,
	NotificationCategoryInfo,
	NotificationCategoryAlert,
	NotificationCategoryCoupon,
}

// IsValid checks whether the given category matches the canonical enum.
func (n NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationCategory converts raw strings into NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}
