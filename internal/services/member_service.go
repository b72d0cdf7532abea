package services

import (
	"context"
	"fmt"
	"strings"

	"treasury-backend/internal/cache"
	"treasury-backend/internal/ledger"
	"treasury-backend/internal/models"
	"treasury-backend/internal/realtime"
)

type MemberService struct {
	Members     MemberStore
	Collections CollectionStore
	Statuses    StatusStore
	Publisher   realtime.Publisher
}

func NewMemberService(members MemberStore, collections CollectionStore, statuses StatusStore, pub realtime.Publisher) *MemberService {
	return &MemberService{Members: members, Collections: collections, Statuses: statuses, Publisher: pub}
}

func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

// Add puts a member on the roster. The repository gives them a zero
// status for every existing collection in the same transaction.
func (s *MemberService) Add(ctx context.Context, req *models.CreateMemberRequest) (*models.Member, error) {
	m := &models.Member{
		ID:   strings.TrimSpace(req.ID),
		Name: strings.TrimSpace(req.Name),
		Role: req.Role,
	}
	if m.ID == "" || m.Name == "" {
		return nil, fmt.Errorf("%w: member id and name are required", ErrInvalidInput)
	}

	if err := s.Members.Create(ctx, m); err != nil {
		return nil, err
	}

	cache.InvalidateLedger(ctx)
	s.Publisher.Publish(realtime.Event{Type: realtime.EventMembersChanged, MemberID: m.ID})
	return m, nil
}

func (s *MemberService) Remove(ctx context.Context, id string) error {
	if err := s.Members.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateLedger(ctx)
	s.Publisher.Publish(realtime.Event{Type: realtime.EventMembersChanged, MemberID: id})
	return nil
}

// Ledger returns one member's balances across every collection.
func (s *MemberService) Ledger(ctx context.Context, id string) (*ledger.MemberStatement, error) {
	m, err := s.Members.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	collections, err := s.Collections.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.Statuses.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	st := ledger.MemberLedger(*m, collections, statuses)
	return &st, nil
}
