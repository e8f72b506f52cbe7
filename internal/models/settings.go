package models

// Settings holds persisted user preferences.
type Settings struct {
	Timezone             string `json:"timezone" yaml:"timezone"`
	NotificationsEnabled bool   `json:"notifications_enabled" yaml:"notifications_enabled"`
}
