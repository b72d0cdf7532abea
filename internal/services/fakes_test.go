package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"treasury-backend/internal/models"
	"treasury-backend/internal/realtime"
	"treasury-backend/internal/repositories"
)

// memDB backs every fake store so services see one consistent state.
type memDB struct {
	mu            sync.Mutex
	members       []models.Member
	collections   map[string]*models.Collection
	order         []string
	statuses      models.PaymentStatuses
	notifications []models.Notification
	settings      map[string][]byte
	treasurers    map[int]*models.Treasurer
	failCreate    error
	createDelay   time.Duration
}

func newMemDB(members ...models.Member) *memDB {
	return &memDB{
		members:     members,
		collections: make(map[string]*models.Collection),
		statuses:    models.PaymentStatuses{},
		settings:    make(map[string][]byte),
		treasurers:  make(map[int]*models.Treasurer),
	}
}

func (db *memDB) writeRecords(collectionID string, records []models.LedgerRecord) {
	for _, r := range records {
		db.statuses.Set(r.MemberID, collectionID, models.PaymentStatus{PaidAmount: r.PaidAmount, UpdatedAt: r.UpdatedAt})
	}
}

type fakeMembers struct{ db *memDB }

func (f fakeMembers) List(ctx context.Context) ([]models.Member, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]models.Member, len(f.db.members))
	copy(out, f.db.members)
	return out, nil
}

func (f fakeMembers) Get(ctx context.Context, id string) (*models.Member, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, m := range f.db.members {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeMembers) Create(ctx context.Context, m *models.Member) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.members {
		if existing.ID == m.ID {
			return repositories.ErrDuplicate
		}
	}
	f.db.members = append(f.db.members, *m)
	for _, id := range f.db.order {
		f.db.statuses.Set(m.ID, id, models.PaymentStatus{UpdatedAt: time.Now()})
	}
	return nil
}

func (f fakeMembers) Delete(ctx context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for i, m := range f.db.members {
		if m.ID == id {
			f.db.members = append(f.db.members[:i], f.db.members[i+1:]...)
			delete(f.db.statuses, id)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeCollections struct{ db *memDB }

func (f fakeCollections) List(ctx context.Context) ([]models.Collection, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.Collection
	for _, id := range f.db.order {
		out = append(out, *f.db.collections[id])
	}
	return out, nil
}

func (f fakeCollections) Get(ctx context.Context, id string) (*models.Collection, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.collections[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCollections) Create(ctx context.Context, c *models.Collection, records []models.LedgerRecord) error {
	if f.db.createDelay > 0 {
		time.Sleep(f.db.createDelay)
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failCreate != nil {
		return f.db.failCreate
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i := range records {
		records[i].CollectionID = c.ID
	}
	cp := *c
	f.db.collections[c.ID] = &cp
	f.db.order = append(f.db.order, c.ID)
	f.db.writeRecords(c.ID, records)
	return nil
}

func (f fakeCollections) Update(ctx context.Context, c *models.Collection, records []models.LedgerRecord) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.collections[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *c
	f.db.collections[c.ID] = &cp
	f.db.writeRecords(c.ID, records)
	return nil
}

func (f fakeCollections) Remit(ctx context.Context, id string, d models.RemittanceDetails) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.collections[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if c.IsRemitted() {
		return repositories.ErrAlreadyRemitted
	}
	c.RemittanceDetails = &d
	return nil
}

func (f fakeCollections) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.db.collections[id]; !ok {
			continue
		}
		delete(f.db.collections, id)
		for i, o := range f.db.order {
			if o == id {
				f.db.order = append(f.db.order[:i], f.db.order[i+1:]...)
				break
			}
		}
		for _, byCollection := range f.db.statuses {
			delete(byCollection, id)
		}
		n++
	}
	return n, nil
}

type fakeStatuses struct{ db *memDB }

func (f fakeStatuses) LoadAll(ctx context.Context) (models.PaymentStatuses, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := models.PaymentStatuses{}
	for m, byCollection := range f.db.statuses {
		for c, st := range byCollection {
			out.Set(m, c, st)
		}
	}
	return out, nil
}

func (f fakeStatuses) ForCollection(ctx context.Context, collectionID string) (models.PaymentStatuses, error) {
	all, _ := f.LoadAll(ctx)
	out := models.PaymentStatuses{}
	for m, byCollection := range all {
		if st, ok := byCollection[collectionID]; ok {
			out.Set(m, collectionID, st)
		}
	}
	return out, nil
}

func (f fakeStatuses) Upsert(ctx context.Context, rec models.LedgerRecord) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.writeRecords(rec.CollectionID, []models.LedgerRecord{rec})
	return nil
}

func (f fakeStatuses) SaveAll(ctx context.Context, records []models.LedgerRecord) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range records {
		f.db.writeRecords(r.CollectionID, []models.LedgerRecord{r})
	}
	return nil
}

type fakeNotifications struct{ db *memDB }

func (f fakeNotifications) Create(ctx context.Context, n *models.Notification) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	f.db.notifications = append(f.db.notifications, *n)
	return nil
}

func (f fakeNotifications) List(ctx context.Context, limit int) ([]models.Notification, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := make([]models.Notification, 0, len(f.db.notifications))
	for i := len(f.db.notifications) - 1; i >= 0; i-- {
		out = append(out, f.db.notifications[i])
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeNotifications) MarkRead(ctx context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for i := range f.db.notifications {
		if f.db.notifications[i].ID == id {
			f.db.notifications[i].Read = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f fakeNotifications) MarkAllRead(ctx context.Context) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for i := range f.db.notifications {
		f.db.notifications[i].Read = true
	}
	return nil
}

func (f fakeNotifications) Exists(ctx context.Context, title, relatedCollectionID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, n := range f.db.notifications {
		if n.Title == title && n.RelatedCollectionID == relatedCollectionID {
			return true, nil
		}
	}
	return false, nil
}

type fakeSettings struct{ db *memDB }

func (f fakeSettings) Get(ctx context.Context, key string, dest any) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	raw, ok := f.db.settings[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f fakeSettings) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.settings[key] = raw
	return nil
}

type fakeTreasurers struct{ db *memDB }

func (f fakeTreasurers) Create(ctx context.Context, t *models.Treasurer) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.treasurers {
		if existing.Email == t.Email {
			return repositories.ErrDuplicate
		}
	}
	t.ID = len(f.db.treasurers) + 1
	cp := *t
	f.db.treasurers[t.ID] = &cp
	return nil
}

func (f fakeTreasurers) Get(ctx context.Context, id int) (*models.Treasurer, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.treasurers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTreasurers) GetByEmail(ctx context.Context, email string) (*models.Treasurer, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.treasurers {
		if t.Email == email {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeTreasurers) UpdateProfile(ctx context.Context, id int, name, studentID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.treasurers[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Name, t.StudentID = name, studentID
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// stubExtractor returns a fixed report or error.
type stubExtractor struct {
	report *models.CandidateReport
	err    error
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, sheetText string, roster []models.Member) (*models.CandidateReport, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.report
	cp.Payments = append([]models.CandidatePayment(nil), s.report.Payments...)
	return &cp, nil
}

var errBoom = errors.New("boom")
