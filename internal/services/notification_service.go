package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/models"
)

const (
	notificationSettingsKey = "notification_settings"
	notificationFeedLimit   = 50

	TitleCollectionCreated      = "Collection Created"
	TitleCollectionCreatedByAI  = "Collection Created via AI"
	TitlePaymentRecorded        = "Payment Recorded"
	TitleDeadlineReminder       = "Deadline Reminder"
	titleCollectionDeleted      = "Collection Deleted"
	titleCollectionsDeletedMany = "Collections Deleted"
)

// NoticeBuilder produces a notification for the given preferences, or nil
// when the preferences suppress it.
type NoticeBuilder func(s models.NotificationSettings) *models.Notification

func CollectionCreatedNotice(name, collectionID string, fromFile bool) NoticeBuilder {
	return func(s models.NotificationSettings) *models.Notification {
		if !s.Enabled || !s.NewCollections {
			return nil
		}
		if fromFile {
			return &models.Notification{
				Title:               TitleCollectionCreatedByAI,
				Body:                fmt.Sprintf("The collection %q has been added from your file.", name),
				RelatedCollectionID: collectionID,
			}
		}
		return &models.Notification{
			Title:               TitleCollectionCreated,
			Body:                fmt.Sprintf("The collection %q has been added.", name),
			RelatedCollectionID: collectionID,
		}
	}
}

func PaymentRecordedNotice(memberName string, amount decimal.Decimal, collectionName, collectionID string) NoticeBuilder {
	return func(s models.NotificationSettings) *models.Notification {
		if !s.Enabled || !s.Payments {
			return nil
		}
		return &models.Notification{
			Title:               TitlePaymentRecorded,
			Body:                fmt.Sprintf("%s paid %s for %q.", memberName, formatCurrency(amount), collectionName),
			RelatedCollectionID: collectionID,
		}
	}
}

// CollectionsDeletedNotice is always raised; deletions are not optional
// to report.
func CollectionsDeletedNotice(n int64) NoticeBuilder {
	return func(models.NotificationSettings) *models.Notification {
		title, noun := titleCollectionDeleted, "collection"
		if n > 1 {
			title, noun = titleCollectionsDeletedMany, "collections"
		}
		return &models.Notification{
			Title: title,
			Body:  fmt.Sprintf("%d %s and associated payments were deleted.", n, noun),
		}
	}
}

func DeadlineReminderNotice(name, collectionID string) NoticeBuilder {
	return func(s models.NotificationSettings) *models.Notification {
		if !s.Enabled {
			return nil
		}
		return &models.Notification{
			Title:               TitleDeadlineReminder,
			Body:                fmt.Sprintf("The collection %q is due soon.", name),
			RelatedCollectionID: collectionID,
		}
	}
}

type NotificationService struct {
	Repo     NotificationStore
	Settings SettingsStore
}

func NewNotificationService(repo NotificationStore, settings SettingsStore) *NotificationService {
	return &NotificationService{Repo: repo, Settings: settings}
}

// Preferences returns the stored notification settings, or the defaults
// when none were saved.
func (s *NotificationService) Preferences(ctx context.Context) (models.NotificationSettings, error) {
	prefs := models.DefaultNotificationSettings()
	if _, err := s.Settings.Get(ctx, notificationSettingsKey, &prefs); err != nil {
		return models.DefaultNotificationSettings(), err
	}
	return prefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, prefs models.NotificationSettings) error {
	return s.Settings.Put(ctx, notificationSettingsKey, prefs)
}

// Notify raises the notification built for the current preferences.
// Failures are logged and never propagate to the caller's operation.
func (s *NotificationService) Notify(ctx context.Context, build NoticeBuilder) {
	prefs, err := s.Preferences(ctx)
	if err != nil {
		log.Printf("[Notify] Failed to load preferences, using defaults: %v", err)
	}
	n := build(prefs)
	if n == nil {
		return
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		log.Printf("[Notify] Failed to store %q notification: %v", n.Title, err)
	}
}

func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	list, err := s.Repo.List(ctx, notificationFeedLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.Repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.Repo.MarkAllRead(ctx)
}
