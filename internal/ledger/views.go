package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/models"
)

// Snapshot is the immutable input to the organization-wide views.
type Snapshot struct {
	Members     []models.Member
	Collections []models.Collection
	Statuses    models.PaymentStatuses
}

// MemberAmount is one member's share in a breakdown.
type MemberAmount struct {
	MemberID   string          `json:"member_id"`
	MemberName string          `json:"member_name"`
	Amount     decimal.Decimal `json:"amount"`
}

// CollectionBreakdown lists the members contributing to one collection's total.
type CollectionBreakdown struct {
	CollectionID   string          `json:"collection_id"`
	CollectionName string          `json:"collection_name"`
	Total          decimal.Decimal `json:"total"`
	Members        []MemberAmount  `json:"members"`
}

// Breakdown is an organization-wide total with its per-collection detail.
type Breakdown struct {
	Total       decimal.Decimal       `json:"total"`
	Collections []CollectionBreakdown `json:"collections"`
}

// FundsOnHand sums paid amounts over non-remitted collections only. Each
// collection lists the members who paid something.
func FundsOnHand(s Snapshot) Breakdown {
	out := Breakdown{Total: decimal.Zero, Collections: []CollectionBreakdown{}}
	for _, c := range s.Collections {
		if c.IsRemitted() {
			continue
		}
		cb := CollectionBreakdown{CollectionID: c.ID, CollectionName: c.Name, Total: decimal.Zero, Members: []MemberAmount{}}
		for _, m := range s.Members {
			paid := PaidAmount(s.Statuses, m.ID, c.ID)
			if !paid.IsPositive() {
				continue
			}
			cb.Total = cb.Total.Add(paid)
			cb.Members = append(cb.Members, MemberAmount{MemberID: m.ID, MemberName: m.Name, Amount: paid})
		}
		out.Total = out.Total.Add(cb.Total)
		out.Collections = append(out.Collections, cb)
	}
	return out
}

// Outstanding sums max(0, due-paid) over every member and every collection.
// An overpayment never offsets another member's or collection's dues.
// Collections with nothing outstanding are omitted from the detail.
func Outstanding(s Snapshot) Breakdown {
	out := Breakdown{Total: decimal.Zero, Collections: []CollectionBreakdown{}}
	for _, c := range s.Collections {
		cb := CollectionBreakdown{CollectionID: c.ID, CollectionName: c.Name, Total: decimal.Zero, Members: []MemberAmount{}}
		for _, m := range s.Members {
			owed := Balance(c.AmountPerUser, PaidAmount(s.Statuses, m.ID, c.ID))
			if !owed.IsPositive() {
				continue
			}
			cb.Total = cb.Total.Add(owed)
			cb.Members = append(cb.Members, MemberAmount{MemberID: m.ID, MemberName: m.Name, Amount: owed})
		}
		if cb.Total.IsPositive() {
			out.Total = out.Total.Add(cb.Total)
			out.Collections = append(out.Collections, cb)
		}
	}
	return out
}

// Deadline is an upcoming due date of an active collection.
type Deadline struct {
	CollectionID   string    `json:"collection_id"`
	CollectionName string    `json:"collection_name"`
	Deadline       time.Time `json:"deadline"`
}

// Dashboard is the organization overview.
type Dashboard struct {
	MemberCount       int             `json:"member_count"`
	ActiveCollections int             `json:"active_collections"`
	FundsOnHand       decimal.Decimal `json:"funds_on_hand"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	UpcomingDeadlines []Deadline      `json:"upcoming_deadlines"`
}

// MaxUpcomingDeadlines caps the dashboard deadline list.
const MaxUpcomingDeadlines = 5

// BuildDashboard computes the overview as of today (any instant within the day).
func BuildDashboard(s Snapshot, today time.Time) Dashboard {
	d := Dashboard{
		MemberCount:       len(s.Members),
		FundsOnHand:       FundsOnHand(s).Total,
		Outstanding:       Outstanding(s).Total,
		UpcomingDeadlines: UpcomingDeadlines(s.Collections, today, MaxUpcomingDeadlines),
	}
	for _, c := range s.Collections {
		if !c.IsRemitted() {
			d.ActiveCollections++
		}
	}
	return d
}

// UpcomingDeadlines returns up to limit active collections whose deadline is
// today or later, nearest first.
func UpcomingDeadlines(collections []models.Collection, today time.Time, limit int) []Deadline {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	out := []Deadline{}
	for _, c := range collections {
		if c.IsRemitted() || c.Deadline == nil || c.Deadline.Before(start) {
			continue
		}
		out = append(out, Deadline{CollectionID: c.ID, CollectionName: c.Name, Deadline: *c.Deadline})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DueWithin returns active collections whose deadline day ends after now
// but no later than now+window. The deadline day ends at 23:59:59.999 in
// now's location.
func DueWithin(collections []models.Collection, now time.Time, window time.Duration) []Deadline {
	out := []Deadline{}
	for _, c := range collections {
		if c.IsRemitted() || c.Deadline == nil {
			continue
		}
		dl := *c.Deadline
		end := time.Date(dl.Year(), dl.Month(), dl.Day(), 23, 59, 59, int(999*time.Millisecond), now.Location())
		left := end.Sub(now)
		if left > 0 && left <= window {
			out = append(out, Deadline{CollectionID: c.ID, CollectionName: c.Name, Deadline: dl})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out
}

// MemberRow is one line of a collection detail view.
type MemberRow struct {
	MemberID        string          `json:"member_id"`
	MemberName      string          `json:"member_name"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Balance         decimal.Decimal `json:"balance"`
	DisplayStatus   DisplayStatus   `json:"display_status"`
	PersistedStatus string          `json:"status"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// MemberRows lists members of c, optionally narrowed to one display status
// (nil means all) and to a case-insensitive substring of name or ID.
func MemberRows(c models.Collection, members []models.Member, statuses models.PaymentStatuses, filter *DisplayStatus, query string) []MemberRow {
	q := strings.ToLower(strings.TrimSpace(query))
	rows := []MemberRow{}
	for _, m := range members {
		paid := PaidAmount(statuses, m.ID, c.ID)
		ds := Display(paid, c.AmountPerUser)
		if filter != nil && ds != *filter {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.ID), q) {
			continue
		}
		row := MemberRow{
			MemberID:        m.ID,
			MemberName:      m.Name,
			PaidAmount:      paid,
			Balance:         Balance(c.AmountPerUser, paid),
			DisplayStatus:   ds,
			PersistedStatus: PersistedStatus(paid, c.AmountPerUser),
		}
		if st, ok := statuses.Get(m.ID, c.ID); ok && !st.UpdatedAt.IsZero() {
			at := st.UpdatedAt
			row.UpdatedAt = &at
		}
		rows = append(rows, row)
	}
	return rows
}

// History event kinds.
const (
	EventPayment    = "payment"
	EventRemittance = "remittance"
)

// HistoryEvent is one entry of the organization payment history.
type HistoryEvent struct {
	Kind           string          `json:"kind"`
	CollectionID   string          `json:"collection_id"`
	CollectionName string          `json:"collection_name"`
	MemberID       string          `json:"member_id,omitempty"`
	MemberName     string          `json:"member_name,omitempty"`
	RemittedBy     string          `json:"remitted_by,omitempty"`
	ReceivedBy     string          `json:"received_by,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	At             time.Time       `json:"at"`
}

// History lists every positive payment and every remittance that moved a
// positive amount, newest first.
func History(s Snapshot) []HistoryEvent {
	events := []HistoryEvent{}
	for _, c := range s.Collections {
		for _, m := range s.Members {
			st, ok := s.Statuses.Get(m.ID, c.ID)
			if !ok || !st.PaidAmount.IsPositive() {
				continue
			}
			events = append(events, HistoryEvent{
				Kind:           EventPayment,
				CollectionID:   c.ID,
				CollectionName: c.Name,
				MemberID:       m.ID,
				MemberName:     m.Name,
				Amount:         st.PaidAmount,
				At:             st.UpdatedAt,
			})
		}
		if c.IsRemitted() {
			collected := Collected(c.ID, s.Members, s.Statuses)
			if collected.IsPositive() {
				events = append(events, HistoryEvent{
					Kind:           EventRemittance,
					CollectionID:   c.ID,
					CollectionName: c.Name,
					RemittedBy:     c.RemittanceDetails.RemittedBy,
					ReceivedBy:     c.RemittanceDetails.ReceivedBy,
					Amount:         collected,
					At:             c.RemittanceDetails.RemittedAt,
				})
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.After(events[j].At) })
	return events
}

// MemberCollectionLine is one collection as seen by a single member.
type MemberCollectionLine struct {
	CollectionID   string          `json:"collection_id"`
	CollectionName string          `json:"collection_name"`
	Due            decimal.Decimal `json:"due"`
	Paid           decimal.Decimal `json:"paid"`
	Balance        decimal.Decimal `json:"balance"`
	DisplayStatus  DisplayStatus   `json:"display_status"`
	Remitted       bool            `json:"remitted"`
}

// MemberStatement is a member's position across all collections.
type MemberStatement struct {
	Member      models.Member          `json:"member"`
	TotalDue    decimal.Decimal        `json:"total_due"`
	TotalPaid   decimal.Decimal        `json:"total_paid"`
	Outstanding decimal.Decimal        `json:"outstanding"`
	Credits     decimal.Decimal        `json:"credits"`
	Lines       []MemberCollectionLine `json:"lines"`
}

// MemberLedger builds one member's statement. Outstanding and credits are
// accumulated per collection and never net against each other.
func MemberLedger(m models.Member, collections []models.Collection, statuses models.PaymentStatuses) MemberStatement {
	st := MemberStatement{
		Member:      m,
		TotalDue:    decimal.Zero,
		TotalPaid:   decimal.Zero,
		Outstanding: decimal.Zero,
		Credits:     decimal.Zero,
		Lines:       []MemberCollectionLine{},
	}
	for _, c := range collections {
		paid := PaidAmount(statuses, m.ID, c.ID)
		bal := Balance(c.AmountPerUser, paid)
		st.TotalDue = st.TotalDue.Add(c.AmountPerUser)
		st.TotalPaid = st.TotalPaid.Add(paid)
		if bal.IsPositive() {
			st.Outstanding = st.Outstanding.Add(bal)
		} else {
			st.Credits = st.Credits.Add(bal.Neg())
		}
		st.Lines = append(st.Lines, MemberCollectionLine{
			CollectionID:   c.ID,
			CollectionName: c.Name,
			Due:            c.AmountPerUser,
			Paid:           paid,
			Balance:        bal,
			DisplayStatus:  Display(paid, c.AmountPerUser),
			Remitted:       c.IsRemitted(),
		})
	}
	return st
}
