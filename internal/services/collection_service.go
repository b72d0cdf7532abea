package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/cache"
	"treasury-backend/internal/ledger"
	"treasury-backend/internal/models"
	"treasury-backend/internal/realtime"
	"treasury-backend/internal/timeutil"
)

// Collection list filters.
const (
	FilterActive   = "active"
	FilterRemitted = "remitted"
)

// ReminderWindow is how close a deadline must be to raise a reminder.
const ReminderWindow = 24 * time.Hour

// CollectionView is a collection with its progress summary.
type CollectionView struct {
	models.Collection
	Summary ledger.CollectionSummary `json:"summary"`
}

type CollectionService struct {
	Members     MemberStore
	Collections CollectionStore
	Statuses    StatusStore
	Notifier    *NotificationService
	Publisher   realtime.Publisher
	now         func() time.Time
}

func NewCollectionService(members MemberStore, collections CollectionStore, statuses StatusStore, notifier *NotificationService, pub realtime.Publisher) *CollectionService {
	return &CollectionService{
		Members:     members,
		Collections: collections,
		Statuses:    statuses,
		Notifier:    notifier,
		Publisher:   pub,
		now:         timeutil.Now,
	}
}

// List returns collections with their summaries. filter is "", "active" or
// "remitted".
func (s *CollectionService) List(ctx context.Context, filter string) ([]CollectionView, error) {
	if filter != "" && filter != FilterActive && filter != FilterRemitted {
		return nil, fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, filter)
	}

	collections, err := s.Collections.List(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.Statuses.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	views := []CollectionView{}
	for _, c := range collections {
		if (filter == FilterActive && c.IsRemitted()) || (filter == FilterRemitted && !c.IsRemitted()) {
			continue
		}
		views = append(views, CollectionView{Collection: c, Summary: ledger.Summarize(c, members, statuses)})
	}
	return views, nil
}

func (s *CollectionService) Get(ctx context.Context, id string) (*CollectionView, error) {
	c, err := s.Collections.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.Statuses.ForCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CollectionView{Collection: *c, Summary: ledger.Summarize(*c, members, statuses)}, nil
}

// Create adds a collection and a zero Unpaid status for every member, all
// in one transaction.
func (s *CollectionService) Create(ctx context.Context, req *models.CreateCollectionRequest) (*models.Collection, error) {
	c, err := collectionFromRequest(req.Name, req.AmountPerUser, req.Deadline)
	if err != nil {
		return nil, err
	}

	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	records := make([]models.LedgerRecord, 0, len(members))
	for _, m := range members {
		records = append(records, models.LedgerRecord{
			MemberID:        m.ID,
			MemberName:      m.Name,
			PaidAmount:      decimal.Zero,
			Status:          ledger.PersistedStatus(decimal.Zero, c.AmountPerUser),
			UpdatedAt:       now,
			TimestampSource: models.TimestampFromConfirmation,
		})
	}

	if err := s.Collections.Create(ctx, c, records); err != nil {
		return nil, err
	}

	s.changed(ctx, realtime.EventCollectionCreated, c.ID)
	s.Notifier.Notify(ctx, CollectionCreatedNotice(c.Name, c.ID, false))
	return c, nil
}

// Update edits name, amount and deadline. Persisted statuses are re-derived
// against the new amount; paid amounts are untouched.
func (s *CollectionService) Update(ctx context.Context, id string, req *models.UpdateCollectionRequest) (*models.Collection, error) {
	existing, err := s.Collections.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := collectionFromRequest(req.Name, req.AmountPerUser, req.Deadline)
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.RemittanceDetails = existing.RemittanceDetails

	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.Statuses.ForCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	records := make([]models.LedgerRecord, 0, len(members))
	for _, m := range members {
		st, ok := statuses.Get(m.ID, id)
		at := st.UpdatedAt
		if !ok || at.IsZero() {
			at = now
		}
		records = append(records, models.LedgerRecord{
			MemberID:     m.ID,
			MemberName:   m.Name,
			CollectionID: id,
			PaidAmount:   st.PaidAmount,
			Status:       ledger.PersistedStatus(st.PaidAmount, c.AmountPerUser),
			UpdatedAt:    at,
		})
	}

	if err := s.Collections.Update(ctx, c, records); err != nil {
		return nil, err
	}
	s.changed(ctx, realtime.EventCollectionUpdated, c.ID)
	return c, nil
}

// Remit records that the collected funds were handed over. It cannot be
// undone.
func (s *CollectionService) Remit(ctx context.Context, id string, req *models.RemitCollectionRequest) error {
	d := models.RemittanceDetails{
		IsRemitted: true,
		RemittedBy: strings.TrimSpace(req.RemittedBy),
		ReceivedBy: strings.TrimSpace(req.ReceivedBy),
		RemittedAt: s.now(),
	}
	if d.RemittedBy == "" || d.ReceivedBy == "" {
		return fmt.Errorf("%w: remitted by and received by are required", ErrInvalidInput)
	}
	if err := s.Collections.Remit(ctx, id, d); err != nil {
		return err
	}
	s.changed(ctx, realtime.EventCollectionRemitted, id)
	return nil
}

// DeleteMany removes collections and their statuses atomically.
func (s *CollectionService) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no collections selected", ErrInvalidInput)
	}
	n, err := s.Collections.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.changed(ctx, realtime.EventCollectionsDeleted, ids...)
		s.Notifier.Notify(ctx, CollectionsDeletedNotice(n))
	}
	return n, nil
}

// SetPayment records what one member has paid toward one collection.
func (s *CollectionService) SetPayment(ctx context.Context, collectionID, memberID string, paid decimal.Decimal) (*models.LedgerRecord, error) {
	if paid.IsNegative() {
		return nil, fmt.Errorf("%w: paid amount must not be negative", ErrInvalidInput)
	}
	c, err := s.Collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	m, err := s.Members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}

	rec := models.LedgerRecord{
		MemberID:        m.ID,
		MemberName:      m.Name,
		CollectionID:    c.ID,
		PaidAmount:      paid,
		Status:          ledger.PersistedStatus(paid, c.AmountPerUser),
		UpdatedAt:       s.now(),
		TimestampSource: models.TimestampFromConfirmation,
	}
	if err := s.Statuses.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	cache.InvalidateLedger(ctx)
	s.Publisher.Publish(realtime.Event{Type: realtime.EventPaymentUpdated, CollectionIDs: []string{c.ID}, MemberID: m.ID})
	if paid.IsPositive() {
		s.Notifier.Notify(ctx, PaymentRecordedNotice(m.Name, paid, c.Name, c.ID))
	}
	return &rec, nil
}

// MarkAll sets every member to the full amount (paid) or zero (unpaid) in
// one transaction.
func (s *CollectionService) MarkAll(ctx context.Context, collectionID string, paid bool) ([]models.LedgerRecord, error) {
	c, err := s.Collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if paid {
		amount = c.AmountPerUser
	}
	now := s.now()
	records := make([]models.LedgerRecord, 0, len(members))
	for _, m := range members {
		records = append(records, models.LedgerRecord{
			MemberID:        m.ID,
			MemberName:      m.Name,
			CollectionID:    c.ID,
			PaidAmount:      amount,
			Status:          ledger.PersistedStatus(amount, c.AmountPerUser),
			UpdatedAt:       now,
			TimestampSource: models.TimestampFromConfirmation,
		})
	}
	if err := s.Statuses.SaveAll(ctx, records); err != nil {
		return nil, err
	}

	s.changed(ctx, realtime.EventPaymentUpdated, c.ID)
	return records, nil
}

// MemberRows lists the collection's members, optionally filtered by display
// status and a name or ID search.
func (s *CollectionService) MemberRows(ctx context.Context, collectionID, status, query string) ([]ledger.MemberRow, error) {
	var filter *ledger.DisplayStatus
	if status != "" && status != "all" {
		ds, ok := ledger.ParseDisplayStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		filter = &ds
	}

	c, err := s.Collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.Statuses.ForCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return ledger.MemberRows(*c, members, statuses, filter, query), nil
}

// RemindDeadlines raises one reminder per active collection due within
// ReminderWindow. It returns how many reminders were raised.
func (s *CollectionService) RemindDeadlines(ctx context.Context) (int, error) {
	collections, err := s.Collections.List(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, dl := range ledger.DueWithin(collections, s.now(), ReminderWindow) {
		exists, err := s.Notifier.Repo.Exists(ctx, TitleDeadlineReminder, dl.CollectionID)
		if err != nil {
			return sent, err
		}
		if exists {
			continue
		}
		s.Notifier.Notify(ctx, DeadlineReminderNotice(dl.CollectionName, dl.CollectionID))
		sent++
	}
	return sent, nil
}

// RunDeadlineReminders checks deadlines on every tick until ctx is done.
func (s *CollectionService) RunDeadlineReminders(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if n, err := s.RemindDeadlines(ctx); err != nil {
			log.Printf("[Reminders] Deadline check failed: %v", err)
		} else if n > 0 {
			log.Printf("[Reminders] Raised %d deadline reminder(s)", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *CollectionService) changed(ctx context.Context, kind string, ids ...string) {
	cache.InvalidateLedger(ctx)
	s.Publisher.Publish(realtime.Event{Type: kind, CollectionIDs: ids})
}

func collectionFromRequest(name string, amount decimal.Decimal, deadline string) (*models.Collection, error) {
	c := &models.Collection{
		Name:          strings.TrimSpace(name),
		AmountPerUser: amount,
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount per member must not be negative", ErrInvalidInput)
	}
	if strings.TrimSpace(deadline) != "" {
		dl, ok := timeutil.ParseDate(deadline)
		if !ok {
			return nil, fmt.Errorf("%w: deadline %q is not a date", ErrInvalidInput, deadline)
		}
		c.Deadline = &dl
	}
	return c, nil
}
