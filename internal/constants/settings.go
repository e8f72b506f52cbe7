package constants

const (
	// Setting keys
	SettingTimezone             = "timezone"
	SettingNotificationsEnabled = "notifications_enabled"

	// Default setting values
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultNotificationsEnabled = true
)
