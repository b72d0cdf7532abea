package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/assistant"
	"treasury-backend/internal/cache"
	"treasury-backend/internal/extraction"
	"treasury-backend/internal/ingest"
	"treasury-backend/internal/models"
	"treasury-backend/internal/realtime"
	"treasury-backend/internal/repositories"
	"treasury-backend/internal/spreadsheet"
	"treasury-backend/internal/storage"
)

var fixedNow = time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func roster() []models.Member {
	return []models.Member{
		{ID: "2024-001", Name: "Ana Cruz"},
		{ID: "2024-002", Name: "Ben Reyes"},
		{ID: "2024-003", Name: "Carla Santos"},
	}
}

func goodReport() *models.CandidateReport {
	return &models.CandidateReport{
		CollectionName: "Field Trip",
		Amount:         amt("150"),
		Deadline:       "2024-08-01",
		TreasurerName:  "Ana Cruz",
		HasHeader:      true,
		HasBody:        true,
		HasFooter:      true,
		HasStudentData: true,
		Payments: []models.CandidatePayment{
			{StudentID: "2024-001", Name: "Ana Cruz", Amount: amt("150"), Time: "2:15 PM", Date: "7/5/2024"},
			{StudentID: "2024-002", Name: "Ben Reyes", Amount: amt("50"), Time: "", Date: ""},
			{StudentID: "9999", Name: "Stranger", Amount: amt("150"), Time: "", Date: ""},
		},
	}
}

type harness struct {
	db          *memDB
	pub         *recordingPublisher
	extractor   *stubExtractor
	notifier    *NotificationService
	imports     *ImportService
	collections *CollectionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newMemDB(roster()...)
	pub := &recordingPublisher{}
	ext := &stubExtractor{report: goodReport()}
	notifier := NewNotificationService(fakeNotifications{db}, fakeSettings{db})

	imports := NewImportService(
		fakeMembers{db}, fakeCollections{db}, ext, storage.NoopArchiver{},
		cache.NewExtractionGuard(time.Minute), cache.NewPendingImports(time.Minute),
		notifier, pub, time.Second,
	)
	imports.now = func() time.Time { return fixedNow }

	collections := NewCollectionService(fakeMembers{db}, fakeCollections{db}, fakeStatuses{db}, notifier, pub)
	collections.now = func() time.Time { return fixedNow }

	return &harness{db: db, pub: pub, extractor: ext, notifier: notifier, imports: imports, collections: collections}
}

func workbook(t *testing.T) []byte {
	t.Helper()
	data, err := spreadsheet.Template([]spreadsheet.TemplateMember{{ID: "2024-001", Name: "Ana Cruz"}})
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	return data
}

func category(t *testing.T, err error) ingest.Category {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	return ingest.CategoryOf(err)
}

func TestUpload_RejectsNonSpreadsheet(t *testing.T) {
	h := newHarness(t)
	_, err := h.imports.Upload(context.Background(), 1, "dues.csv", "text/csv", []byte("a,b"))
	if got := category(t, err); got != ingest.CategoryInputRejected {
		t.Fatalf("category = %s, want input_rejected", got)
	}
	if h.extractor.calls != 0 {
		t.Error("extractor must not be called for a rejected file")
	}
}

func TestUpload_UnreadableWorkbook(t *testing.T) {
	h := newHarness(t)
	_, err := h.imports.Upload(context.Background(), 1, "dues.xlsx", spreadsheet.XLSXContentType, []byte("not a zip"))
	if got := category(t, err); got != ingest.CategoryInputRejected {
		t.Fatalf("category = %s, want input_rejected", got)
	}
}

func TestUpload_OneInFlightPerTreasurer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Simulate an upload already waiting on the extractor.
	if !h.imports.Guard.Acquire(ctx, "1") {
		t.Fatal("could not pre-acquire guard")
	}
	_, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if got := category(t, err); got != ingest.CategoryBusy {
		t.Fatalf("category = %s, want busy", got)
	}

	// Another treasurer is unaffected.
	if _, err := h.imports.Upload(ctx, 2, "dues.xlsx", "", workbook(t)); err != nil {
		t.Fatalf("upload for another treasurer: %v", err)
	}

	h.imports.Guard.Release(ctx, "1")
	if _, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t)); err != nil {
		t.Fatalf("upload after release: %v", err)
	}
	// The guard is released when the upload finishes.
	if _, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t)); err != nil {
		t.Fatalf("second sequential upload: %v", err)
	}
}

func TestUpload_ExtractionFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ingest.Category
	}{
		{"not configured", extraction.ErrNotConfigured, ingest.CategoryExtractionAuth},
		{"auth", &extraction.Error{Code: "http_403", Message: "denied", Kind: extraction.ErrAuth}, ingest.CategoryExtractionAuth},
		{"unavailable", &extraction.Error{Code: "timeout", Message: "slow", Kind: extraction.ErrUnavailable}, ingest.CategoryExtractionFailed},
		{"malformed", &extraction.Error{Code: "schema", Message: "bad", Kind: extraction.ErrMalformed}, ingest.CategoryMalformedResponse},
		{"unexpected", errBoom, ingest.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.extractor.err = tt.err
			res, err := h.imports.Upload(context.Background(), 1, "dues.xlsx", "", workbook(t))
			if res != nil {
				t.Error("no partial result on failure")
			}
			if got := category(t, err); got != tt.want {
				t.Errorf("category = %s, want %s", got, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause should stay reachable with errors.Is")
			}
		})
	}
}

func TestUpload_StructuralFailureCarriesDetails(t *testing.T) {
	h := newHarness(t)
	h.extractor.report.HasFooter = false

	_, err := h.imports.Upload(context.Background(), 1, "dues.xlsx", "", workbook(t))
	var ie *ingest.Error
	if !errors.As(err, &ie) || ie.Category != ingest.CategoryStructural {
		t.Fatalf("err = %v, want structural", err)
	}
	if len(ie.Details) != 1 || !strings.HasPrefix(ie.Details[0], "Footer Missing") {
		t.Errorf("details = %v", ie.Details)
	}
	if ie.Candidate == nil || ie.Candidate.CollectionName != "Field Trip" {
		t.Error("expected extracted values alongside the errors")
	}
}

func TestUploadAndConfirm(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", spreadsheet.XLSXContentType, workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !up.Preview.CanConfirm || up.Preview.Reconciliation.ValidCount != 2 {
		t.Fatalf("preview = %+v", up.Preview)
	}
	if len(h.db.order) != 0 {
		t.Fatal("nothing may be persisted before confirmation")
	}

	got, err := h.imports.Get(ctx, 1, up.ImportID)
	if err != nil || got.Preview.Candidate.CollectionName != "Field Trip" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	res, err := h.imports.Confirm(ctx, 1, up.ImportID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Recorded != 3 {
		t.Errorf("recorded = %d, want one per member (3)", res.Recorded)
	}
	if len(res.Unrecognized) != 1 || res.Unrecognized[0].StudentID != "9999" {
		t.Errorf("unrecognized = %+v", res.Unrecognized)
	}
	if !res.Summary.AmountCollected.Equal(amt("200")) || res.Summary.PaidCount != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}

	id := res.Collection.ID
	wantPaid := map[string]string{"2024-001": "150", "2024-002": "50", "2024-003": "0"}
	for member, want := range wantPaid {
		st, ok := h.db.statuses.Get(member, id)
		if !ok || !st.PaidAmount.Equal(amt(want)) {
			t.Errorf("%s paid = %v (present %v), want %s", member, st.PaidAmount, ok, want)
		}
	}

	if n := h.db.notifications; len(n) != 1 || n[0].Title != TitleCollectionCreatedByAI {
		t.Errorf("notifications = %+v", n)
	}
	if types := h.pub.types(); len(types) != 1 || types[0] != realtime.EventImportConfirmed {
		t.Errorf("events = %v", types)
	}

	_, err = h.imports.Confirm(ctx, 1, up.ImportID)
	if got := category(t, err); got != ingest.CategoryNotFound {
		t.Errorf("second confirm category = %s, want not_found", got)
	}
}

func TestConfirm_OtherTreasurerCannotSeeImport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	_, err = h.imports.Confirm(ctx, 2, up.ImportID)
	if got := category(t, err); got != ingest.CategoryNotFound {
		t.Errorf("category = %s, want not_found", got)
	}
}

func TestConfirm_NoValidPayments(t *testing.T) {
	h := newHarness(t)
	h.extractor.report.Payments = []models.CandidatePayment{
		{StudentID: "0001", Name: "Nobody", Amount: amt("10")},
	}
	ctx := context.Background()

	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.Preview.CanConfirm {
		t.Error("preview must not allow confirmation")
	}

	_, err = h.imports.Confirm(ctx, 1, up.ImportID)
	if got := category(t, err); got != ingest.CategoryNoValidPayments {
		t.Fatalf("category = %s, want no_valid_payments", got)
	}
	if len(h.db.order) != 0 {
		t.Error("nothing may be persisted")
	}
}

func TestConfirm_PersistenceFailureKeepsPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	h.db.failCreate = errBoom
	_, err = h.imports.Confirm(ctx, 1, up.ImportID)
	if got := category(t, err); got != ingest.CategoryPersistence {
		t.Fatalf("category = %s, want persistence", got)
	}
	if len(h.db.notifications) != 0 {
		t.Error("no notification for a failed save")
	}

	h.db.failCreate = nil
	if _, err := h.imports.Confirm(ctx, 1, up.ImportID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestConfirm_ConcurrentConfirmsCreateOneCollection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	h.db.createDelay = 20 * time.Millisecond
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.imports.Confirm(ctx, 1, up.ImportID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if got := ingest.CategoryOf(err); got != ingest.CategoryBusy && got != ingest.CategoryNotFound {
			t.Errorf("losing confirm category = %s, want busy or not_found", got)
		}
	}
	if succeeded != 1 {
		t.Errorf("successful confirms = %d, want 1", succeeded)
	}
	if len(h.db.order) != 1 {
		t.Errorf("collections created = %d, want 1", len(h.db.order))
	}
}

func TestCancel_WhileConfirmIsClaimed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if !h.imports.Pending.Claim(ctx, up.ImportID) {
		t.Fatal("claim should succeed")
	}
	if got := category(t, h.imports.Cancel(ctx, 1, up.ImportID)); got != ingest.CategoryBusy {
		t.Errorf("cancel category = %s, want busy", got)
	}
	h.imports.Pending.Release(ctx, up.ImportID)

	if err := h.imports.Cancel(ctx, 1, up.ImportID); err != nil {
		t.Fatalf("Cancel after release: %v", err)
	}
}

func TestConfirm_RemittedReport(t *testing.T) {
	h := newHarness(t)
	h.extractor.report.IsRemitted = true
	h.extractor.report.RemittedBy = "Ana Cruz"
	h.extractor.report.ReceivedBy = "Adviser"
	h.extractor.report.RemittedDate = "not a date"
	ctx := context.Background()

	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	res, err := h.imports.Confirm(ctx, 1, up.ImportID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	rd := res.Collection.RemittanceDetails
	if rd == nil || !rd.IsRemitted || rd.ReceivedBy != "Adviser" || !rd.RemittedAt.Equal(fixedNow) {
		t.Errorf("remittance = %+v", rd)
	}
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	up, err := h.imports.Upload(ctx, 1, "dues.xlsx", "", workbook(t))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := h.imports.Cancel(ctx, 1, up.ImportID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := h.imports.Get(ctx, 1, up.ImportID); category(t, err) != ingest.CategoryNotFound {
		t.Error("cancelled import should be gone")
	}
}

func TestCollectionCreate_InitializesEveryMember(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c, err := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "  Dues ", AmountPerUser: amt("100"), Deadline: "2024-08-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Dues" || c.Deadline == nil || c.Deadline.Day() != 1 {
		t.Errorf("collection = %+v", c)
	}
	for _, m := range roster() {
		st, ok := h.db.statuses.Get(m.ID, c.ID)
		if !ok || !st.PaidAmount.IsZero() {
			t.Errorf("%s: status %+v present=%v", m.ID, st, ok)
		}
	}
	if len(h.db.notifications) != 1 || h.db.notifications[0].Title != TitleCollectionCreated {
		t.Errorf("notifications = %+v", h.db.notifications)
	}
}

func TestCollectionCreate_Rejects(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		req  models.CreateCollectionRequest
	}{
		{"blank name", models.CreateCollectionRequest{Name: " ", AmountPerUser: amt("1")}},
		{"negative amount", models.CreateCollectionRequest{Name: "x", AmountPerUser: amt("-1")}},
		{"bad deadline", models.CreateCollectionRequest{Name: "x", Deadline: "someday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.collections.Create(context.Background(), &tt.req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSetPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, err := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Dues", AmountPerUser: amt("100")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		paid, want string
	}{
		{"100", models.StatusPaid},
		{"150", models.StatusPaid},
		{"40", models.StatusPartial},
		{"0", models.StatusUnpaid},
	}
	for _, tt := range tests {
		rec, err := h.collections.SetPayment(ctx, c.ID, "2024-001", amt(tt.paid))
		if err != nil {
			t.Fatalf("SetPayment(%s): %v", tt.paid, err)
		}
		if rec.Status != tt.want {
			t.Errorf("paid %s: status %s, want %s", tt.paid, rec.Status, tt.want)
		}
	}

	if _, err := h.collections.SetPayment(ctx, c.ID, "2024-001", amt("-5")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative payment err = %v", err)
	}
	if _, err := h.collections.SetPayment(ctx, c.ID, "nobody", amt("5")); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("unknown member err = %v", err)
	}

	// Creation plus three positive payments; the zero payment is silent.
	var payments int
	for _, n := range h.db.notifications {
		if n.Title == TitlePaymentRecorded {
			payments++
		}
	}
	if payments != 3 {
		t.Errorf("payment notifications = %d, want 3", payments)
	}
}

func TestNotificationPreferencesSuppress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.notifier.UpdatePreferences(ctx, models.NotificationSettings{Enabled: true, NewCollections: false, Payments: true}); err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}

	c, err := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Dues", AmountPerUser: amt("100")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(h.db.notifications) != 0 {
		t.Fatalf("collection notice should be suppressed, got %+v", h.db.notifications)
	}
	if _, err := h.collections.SetPayment(ctx, c.ID, "2024-002", amt("1500.5")); err != nil {
		t.Fatalf("SetPayment: %v", err)
	}
	if len(h.db.notifications) != 1 || !strings.Contains(h.db.notifications[0].Body, "₱1,500.50") {
		t.Errorf("notifications = %+v", h.db.notifications)
	}
}

func TestMarkAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Dues", AmountPerUser: amt("75")})

	recs, err := h.collections.MarkAll(ctx, c.ID, true)
	if err != nil {
		t.Fatalf("MarkAll: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d", len(recs))
	}
	view, _ := h.collections.Get(ctx, c.ID)
	if !view.Summary.FullyPaid || !view.Summary.AmountCollected.Equal(amt("225")) {
		t.Errorf("summary after mark all paid = %+v", view.Summary)
	}

	if _, err := h.collections.MarkAll(ctx, c.ID, false); err != nil {
		t.Fatalf("MarkAll unpaid: %v", err)
	}
	view, _ = h.collections.Get(ctx, c.ID)
	if !view.Summary.AmountCollected.IsZero() || view.Summary.PaidCount != 0 {
		t.Errorf("summary after mark all unpaid = %+v", view.Summary)
	}
}

func TestUpdate_RederivesAgainstNewAmount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Dues", AmountPerUser: amt("100")})
	h.collections.SetPayment(ctx, c.ID, "2024-001", amt("80"))

	if _, err := h.collections.Update(ctx, c.ID, &models.UpdateCollectionRequest{Name: "Dues", AmountPerUser: amt("80")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rows, err := h.collections.MemberRows(ctx, c.ID, "paid", "")
	if err != nil {
		t.Fatalf("MemberRows: %v", err)
	}
	if len(rows) != 1 || rows[0].MemberID != "2024-001" || rows[0].PersistedStatus != models.StatusPaid {
		t.Errorf("paid rows = %+v", rows)
	}
	st, _ := h.db.statuses.Get("2024-001", c.ID)
	if !st.PaidAmount.Equal(amt("80")) {
		t.Errorf("paid amount changed to %s", st.PaidAmount)
	}
}

func TestMemberRows_RejectsUnknownFilter(t *testing.T) {
	h := newHarness(t)
	if _, err := h.collections.MemberRows(context.Background(), "x", "overdue", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestRemitAndListFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "A", AmountPerUser: amt("10")})
	h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "B", AmountPerUser: amt("10")})

	req := &models.RemitCollectionRequest{RemittedBy: "Ana", ReceivedBy: "Adviser"}
	if err := h.collections.Remit(ctx, a.ID, req); err != nil {
		t.Fatalf("Remit: %v", err)
	}
	if err := h.collections.Remit(ctx, a.ID, req); !errors.Is(err, repositories.ErrAlreadyRemitted) {
		t.Errorf("second remit err = %v", err)
	}

	active, _ := h.collections.List(ctx, FilterActive)
	remitted, _ := h.collections.List(ctx, FilterRemitted)
	all, _ := h.collections.List(ctx, "")
	if len(active) != 1 || active[0].Name != "B" || len(remitted) != 1 || remitted[0].Name != "A" || len(all) != 2 {
		t.Errorf("active=%d remitted=%d all=%d", len(active), len(remitted), len(all))
	}
	if _, err := h.collections.List(ctx, "archived"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown filter err = %v", err)
	}
}

func TestDeleteMany(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "A"})
	b, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "B"})
	h.db.notifications = nil

	n, err := h.collections.DeleteMany(ctx, []string{a.ID, b.ID, "missing"})
	if err != nil || n != 2 {
		t.Fatalf("DeleteMany = %d, %v", n, err)
	}
	if len(h.db.notifications) != 1 || h.db.notifications[0].Body != "2 collections and associated payments were deleted." {
		t.Errorf("notifications = %+v", h.db.notifications)
	}
	if _, ok := h.db.statuses.Get("2024-001", a.ID); ok {
		t.Error("statuses should be deleted with the collection")
	}
}

func TestRemindDeadlines_OncePerCollection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Soon", Deadline: "2024-07-15"})
	h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Later", Deadline: "2024-09-01"})
	h.db.notifications = nil

	n, err := h.collections.RemindDeadlines(ctx)
	if err != nil || n != 1 {
		t.Fatalf("first run = %d, %v", n, err)
	}
	n, err = h.collections.RemindDeadlines(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second run = %d, %v", n, err)
	}
	if h.db.notifications[0].Title != TitleDeadlineReminder {
		t.Errorf("notification = %+v", h.db.notifications[0])
	}
}

func TestMemberService(t *testing.T) {
	db := newMemDB(roster()...)
	pub := &recordingPublisher{}
	svc := NewMemberService(fakeMembers{db}, fakeCollections{db}, fakeStatuses{db}, pub)
	ctx := context.Background()

	col := &models.Collection{Name: "Dues", AmountPerUser: amt("100")}
	fakeCollections{db}.Create(ctx, col, nil)

	m, err := svc.Add(ctx, &models.CreateMemberRequest{ID: " 2024-010 ", Name: "Dina"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if m.ID != "2024-010" {
		t.Errorf("id = %q", m.ID)
	}
	if _, ok := db.statuses.Get("2024-010", col.ID); !ok {
		t.Error("new member should get a status for existing collections")
	}
	if _, err := svc.Add(ctx, &models.CreateMemberRequest{ID: "2024-010", Name: "Again"}); !errors.Is(err, repositories.ErrDuplicate) {
		t.Errorf("duplicate err = %v", err)
	}

	fakeStatuses{db}.Upsert(ctx, models.LedgerRecord{MemberID: "2024-010", CollectionID: col.ID, PaidAmount: amt("30")})
	st, err := svc.Ledger(ctx, "2024-010")
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if !st.Outstanding.Equal(amt("70")) {
		t.Errorf("outstanding = %s", st.Outstanding)
	}

	if err := svc.Remove(ctx, "2024-010"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(ctx, "2024-010"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("second remove err = %v", err)
	}
	if len(pub.types()) != 2 {
		t.Errorf("events = %v", pub.types())
	}
}

func TestLedgerService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Dues", AmountPerUser: amt("100"), Deadline: "2024-08-01"})
	h.collections.SetPayment(ctx, c.ID, "2024-001", amt("100"))

	svc := NewLedgerService(fakeMembers{h.db}, fakeCollections{h.db}, fakeStatuses{h.db})
	svc.now = func() time.Time { return fixedNow }

	d, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.MemberCount != 3 || !d.FundsOnHand.Equal(amt("100")) || !d.Outstanding.Equal(amt("200")) {
		t.Errorf("dashboard = %+v", d)
	}
	hist, _ := svc.History(ctx)
	if len(hist) != 1 {
		t.Errorf("history = %+v", hist)
	}
}

type stubResponder struct {
	mode        assistant.Mode
	instruction string
	history     []models.ChatTurn
	err         error
}

func (r *stubResponder) Ask(ctx context.Context, mode assistant.Mode, instruction string, history []models.ChatTurn, message string) (*assistant.Reply, error) {
	r.mode, r.instruction, r.history = mode, instruction, history
	if r.err != nil {
		return nil, r.err
	}
	return &assistant.Reply{Mode: mode, Text: "Ben still owes 100.", Sources: []assistant.Source{}}, nil
}

func TestAssistantService_AnswersFromLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Class Fund", AmountPerUser: amt("100"), Deadline: "2024-08-01"})
	h.collections.SetPayment(ctx, c.ID, "2024-001", amt("100"))

	responder := &stubResponder{}
	svc := NewAssistantService(NewLedgerService(fakeMembers{h.db}, fakeCollections{h.db}, fakeStatuses{h.db}), responder, time.Second)
	svc.now = func() time.Time { return fixedNow }

	history := []models.ChatTurn{{Role: "user", Text: "hi"}, {Role: "model", Text: "Hello!"}}
	reply, err := svc.Ask(ctx, models.AssistantRequest{Message: "Who has not paid?", History: history})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply.Mode != assistant.ModeFast || responder.mode != assistant.ModeFast {
		t.Errorf("mode = %s, want fast by default", responder.mode)
	}
	for _, want := range []string{"Class Fund", "Ben Reyes", "2024-07-15"} {
		if !strings.Contains(responder.instruction, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
	if len(responder.history) != 2 {
		t.Errorf("history = %+v", responder.history)
	}
}

func TestAssistantService_Errors(t *testing.T) {
	tests := []struct {
		name string
		mode string
		err  error
		want ingest.Category
	}{
		{"unknown mode", "poetry", nil, ingest.CategoryInputRejected},
		{"not configured", "fast", extraction.ErrNotConfigured, ingest.CategoryExtractionAuth},
		{"rejected key", "search", extraction.ErrAuth, ingest.CategoryExtractionAuth},
		{"unavailable", "thinking", extraction.ErrUnavailable, ingest.CategoryExtractionFailed},
		{"unreadable", "fast", extraction.ErrMalformed, ingest.CategoryMalformedResponse},
		{"other", "fast", errBoom, ingest.CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			svc := NewAssistantService(NewLedgerService(fakeMembers{h.db}, fakeCollections{h.db}, fakeStatuses{h.db}), &stubResponder{err: tt.err}, time.Second)
			_, err := svc.Ask(context.Background(), models.AssistantRequest{Mode: tt.mode, Message: "?"})
			if got := category(t, err); got != tt.want {
				t.Errorf("category = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExportService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tr := &models.Treasurer{Name: "Ana Cruz", Email: "ana@example.com"}
	fakeTreasurers{h.db}.Create(ctx, tr)
	c, _ := h.collections.Create(ctx, &models.CreateCollectionRequest{Name: "Field Trip 2024", AmountPerUser: amt("150")})
	h.collections.SetPayment(ctx, c.ID, "2024-001", amt("150"))

	svc := NewExportService(fakeMembers{h.db}, fakeCollections{h.db}, fakeStatuses{h.db}, fakeTreasurers{h.db})
	svc.now = func() time.Time { return fixedNow }

	x, err := svc.CollectionXLSX(ctx, tr.ID, c.ID)
	if err != nil {
		t.Fatalf("CollectionXLSX: %v", err)
	}
	if x.FileName != "field_trip_2024_export.xlsx" {
		t.Errorf("file name = %q", x.FileName)
	}
	rows, err := spreadsheet.ReadFirstSheet(bytes.NewReader(x.Data))
	if err != nil {
		t.Fatalf("ReadFirstSheet: %v", err)
	}
	last := rows[len(rows)-1]
	if len(last) < 2 || last[0] != "Verified by:" || last[1] != "Ana Cruz" {
		t.Errorf("footer = %v", last)
	}

	p, err := svc.CollectionPDF(ctx, tr.ID, c.ID)
	if err != nil {
		t.Fatalf("CollectionPDF: %v", err)
	}
	if !bytes.HasPrefix(p.Data, []byte("%PDF")) || p.FileName != "field_trip_2024_report.pdf" {
		t.Errorf("pdf = %q, %d bytes", p.FileName, len(p.Data))
	}

	tpl, err := svc.Template(ctx)
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if _, err := spreadsheet.SheetText(bytes.NewReader(tpl.Data)); err != nil {
		t.Errorf("template unreadable: %v", err)
	}
}

func TestAuthService(t *testing.T) {
	db := newMemDB()
	svc := NewAuthService(fakeTreasurers{db}, nil)
	ctx := context.Background()

	if err := svc.EnsureTreasurer(ctx, "Ana", "Ana@Example.com", "pw"); err != nil {
		t.Fatalf("EnsureTreasurer: %v", err)
	}
	if err := svc.EnsureTreasurer(ctx, "Ana", "ana@example.com", "pw"); err != nil {
		t.Fatalf("EnsureTreasurer twice: %v", err)
	}
	if len(db.treasurers) != 1 {
		t.Fatalf("treasurers = %d, want 1", len(db.treasurers))
	}

	if _, err := svc.Login(ctx, &models.LoginRequest{Email: "ana@example.com", Password: "nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, &models.LoginRequest{Email: "ghost@example.com", Password: "pw"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}

	tr, err := svc.UpdateProfile(ctx, 1, &models.UpdateProfileRequest{Name: " Ana C. ", StudentID: "2024-001"})
	if err != nil || tr.Name != "Ana C." || tr.StudentID != "2024-001" {
		t.Errorf("UpdateProfile = %+v, %v", tr, err)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0", "₱0.00"},
		{"1500.5", "₱1,500.50"},
		{"1234567.891", "₱1,234,567.89"},
	}
	for _, tt := range tests {
		if got := formatCurrency(amt(tt.in)); got != tt.want {
			t.Errorf("formatCurrency(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
