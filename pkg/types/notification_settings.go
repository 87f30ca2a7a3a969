package types

// NotificationSettings gates which listing interactions emit a notification
// to the owning producer. Stored as jsonb on the listing row.
type NotificationSettings struct {
	Likes                  bool `json:"likes"`
	Comments               bool `json:"comments"`
	Offers                 bool `json:"offers"`
	Orders                 bool `json:"orders"`
	AutoDeactivateReminder bool `json:"autoDeactivateReminder"`
}

// DefaultNotificationSettings enables every event, matching the behavior a
// listing gets before its owner customizes anything.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Likes:                  true,
		Comments:               true,
		Offers:                 true,
		Orders:                 true,
		AutoDeactivateReminder: true,
	}
}
