package models

import "time"

type Notification struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Body                string    `json:"body"`
	Read                bool      `json:"read"`
	RelatedCollectionID string    `json:"related_collection_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// NotificationSettings gates which in-app notifications are produced.
type NotificationSettings struct {
	Enabled        bool `json:"enabled"`
	NewCollections bool `json:"new_collections"`
	Payments       bool `json:"payments"`
}

// DefaultNotificationSettings has every notification switched on.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Enabled: true, NewCollections: true, Payments: true}
}
