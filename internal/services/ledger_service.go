package services

import (
	"context"
	"encoding/json"
	"time"

	"treasury-backend/internal/cache"
	"treasury-backend/internal/ledger"
	"treasury-backend/internal/timeutil"
)

// LedgerService serves the organization-wide projections.
type LedgerService struct {
	Members     MemberStore
	Collections CollectionStore
	Statuses    StatusStore
	now         func() time.Time
}

func NewLedgerService(members MemberStore, collections CollectionStore, statuses StatusStore) *LedgerService {
	return &LedgerService{Members: members, Collections: collections, Statuses: statuses, now: timeutil.Now}
}

// Snapshot loads the full ledger state.
func (s *LedgerService) Snapshot(ctx context.Context) (ledger.Snapshot, error) {
	members, err := s.Members.List(ctx)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	collections, err := s.Collections.List(ctx)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	statuses, err := s.Statuses.LoadAll(ctx)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return ledger.Snapshot{Members: members, Collections: collections, Statuses: statuses}, nil
}

// Dashboard is cached in Redis until the next ledger write.
func (s *LedgerService) Dashboard(ctx context.Context) (*ledger.Dashboard, error) {
	if data, ok := cache.GetCachedDashboard(ctx); ok {
		var d ledger.Dashboard
		if err := json.Unmarshal(data, &d); err == nil {
			return &d, nil
		}
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	d := ledger.BuildDashboard(snap, s.now())

	if data, err := json.Marshal(d); err == nil {
		cache.CacheDashboard(ctx, data)
	}
	return &d, nil
}

func (s *LedgerService) FundsOnHand(ctx context.Context) (*ledger.Breakdown, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b := ledger.FundsOnHand(snap)
	return &b, nil
}

func (s *LedgerService) Outstanding(ctx context.Context) (*ledger.Breakdown, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b := ledger.Outstanding(snap)
	return &b, nil
}

func (s *LedgerService) History(ctx context.Context) ([]ledger.HistoryEvent, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.History(snap), nil
}
