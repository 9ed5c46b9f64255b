package notice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/mail"
	noticerepo "aguas-del-valle/internal/repository/notice"
)

type memoryRepo struct {
	byID       map[string]domain.Notice
	nextID     int
	deliveries []domain.Notice
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]domain.Notice)}
}

func (r *memoryRepo) Create(_ context.Context, n domain.Notice) (*domain.Notice, error) {
	r.nextID++
	n.ID = fmt.Sprintf("n-%d", r.nextID)
	n.Sent = false
	n.SentAt = nil
	r.byID[n.ID] = n
	clone := n
	return &clone, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Notice, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r *memoryRepo) Update(_ context.Context, n domain.Notice) (*domain.Notice, error) {
	existing, ok := r.byID[n.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	existing.CustomerID = n.CustomerID
	existing.Type = n.Type
	existing.Title = n.Title
	existing.Message = n.Message
	r.byID[n.ID] = existing
	return &existing, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryRepo) List(_ context.Context, f noticerepo.ListFilter) ([]domain.Notice, error) {
	var out []domain.Notice
	for _, n := range r.byID {
		if f.Sent != nil && n.Sent != *f.Sent {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *memoryRepo) ListByCustomer(_ context.Context, customerID string, _ int) ([]domain.Notice, error) {
	var out []domain.Notice
	for _, n := range r.byID {
		if n.CustomerID == customerID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memoryRepo) SaveDelivery(_ context.Context, n domain.Notice) (*domain.Notice, error) {
	stored, ok := r.byID[n.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.deliveries = append(r.deliveries, n)
	stored.Sent = n.Sent
	stored.SentAt = n.SentAt
	r.byID[n.ID] = stored
	return &stored, nil
}

type stubCustomers map[string]domain.Customer

func (s stubCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := s[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService() (*Service, *memoryRepo, *recordingMailer, *clock) {
	repo := newMemoryRepo()
	mailer := &recordingMailer{}
	clk := &clock{t: time.Date(2024, time.October, 5, 9, 0, 0, 0, time.UTC)}
	customers := stubCustomers{
		"c1": {ID: "c1", Name: "Juan Pérez", Email: "juan@example.com", Active: true},
	}
	svc := New(repo, customers, Options{
		CompanyName: "Aguas del Valle",
		MailFrom:    "avisos@aguasdelvalle.cl",
		Mailer:      mailer,
		Now:         clk.now,
	})
	return svc, repo, mailer, clk
}

func validInput() Input {
	return Input{
		CustomerID: "c1",
		Type:       "corte_programado",
		Title:      "Corte de agua",
		Message:    "El martes se realizará un corte entre 9:00 y 13:00.",
	}
}

func TestCreate_StartsUnsent(t *testing.T) {
	svc, _, _, _ := newTestService()
	n, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.Sent || n.SentAt != nil {
		t.Fatalf("new notice must be unsent, got %+v", n)
	}
	if n.Type != domain.NoticeScheduledOutage {
		t.Fatalf("unexpected type %s", n.Type)
	}
	if n.Date.IsZero() {
		t.Fatalf("date should default to now")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.Type = "promocion"
	in.Title = "  <b></b> "
	_, err := svc.Create(ctx, in)
	fields, ok := domain.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := map[string]bool{}
	for _, f := range fields {
		got[f.Field] = true
	}
	if !got["type"] || !got["title"] {
		t.Fatalf("expected type and title failures, got %+v", fields)
	}

	in = validInput()
	in.CustomerID = "missing"
	_, err = svc.Create(ctx, in)
	fields, ok = domain.AsValidation(err)
	if !ok || fields[0].Field != "customerId" {
		t.Fatalf("expected customerId failure, got %v", err)
	}
}

func TestCreate_StripsTags(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := validInput()
	in.Title = "<script>x</script>Corte"
	n, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.Title != "xCorte" {
		t.Fatalf("expected tags stripped, got %q", n.Title)
	}
}

func TestMarkSent_RecordsCallTime(t *testing.T) {
	svc, _, mailer, clk := newTestService()
	ctx := context.Background()
	n, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clk.t = time.Date(2024, time.October, 6, 10, 15, 0, 0, time.UTC)
	marked, err := svc.MarkSent(ctx, n.ID)
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if !marked.Sent || marked.SentAt == nil || !marked.SentAt.Equal(clk.t) {
		t.Fatalf("expected sent at %s, got %+v", clk.t, marked)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("mark-sent must not deliver mail")
	}
}

func TestMarkSent_StoresDeliveryRecord(t *testing.T) {
	svc, repo, _, clk := newTestService()
	ctx := context.Background()
	n, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	marked, err := svc.MarkSent(ctx, n.ID)
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if len(repo.deliveries) != 1 {
		t.Fatalf("expected one stored delivery, got %d", len(repo.deliveries))
	}
	saved := repo.deliveries[0]
	if !saved.Sent || saved.SentAt == nil || !saved.SentAt.Equal(clk.t) {
		t.Fatalf("delivery not recorded on the notice: %+v", saved)
	}
	if marked.Title != "Corte de agua" || !marked.Sent {
		t.Fatalf("unexpected notice after mark sent %+v", marked)
	}

	if _, err := svc.MarkSent(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.deliveries) != 1 {
		t.Fatalf("missing notice must not store a delivery")
	}
}

func TestSend_DeliversAndMarks(t *testing.T) {
	svc, _, mailer, clk := newTestService()
	ctx := context.Background()
	n, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sent, err := svc.Send(ctx, n.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !sent.Sent || !sent.SentAt.Equal(clk.t) {
		t.Fatalf("expected notice marked sent, got %+v", sent)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.Subject != "Corte de agua - Aguas del Valle" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if msg.To[0] != "juan@example.com" {
		t.Fatalf("unexpected recipient %v", msg.To)
	}
	if !strings.Contains(msg.Body, "Corte Programado") {
		t.Fatalf("body should name the notice type: %q", msg.Body)
	}
}

func TestSend_ResendOverwritesTimestamp(t *testing.T) {
	svc, _, mailer, clk := newTestService()
	ctx := context.Background()
	n, _ := svc.Create(ctx, validInput())
	if _, err := svc.Send(ctx, n.ID); err != nil {
		t.Fatalf("first send: %v", err)
	}

	clk.t = clk.t.Add(48 * time.Hour)
	again, err := svc.Send(ctx, n.ID)
	if err != nil {
		t.Fatalf("re-send: %v", err)
	}
	if !again.SentAt.Equal(clk.t) {
		t.Fatalf("expected sent_at overwritten to %s, got %s", clk.t, again.SentAt)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected two deliveries, got %d", len(mailer.sent))
	}
}

func TestSend_FailureLeavesNoticeUnsent(t *testing.T) {
	svc, repo, mailer, _ := newTestService()
	ctx := context.Background()
	n, _ := svc.Create(ctx, validInput())
	mailer.err = errors.New("dial tcp: connection refused")

	_, err := svc.Send(ctx, n.ID)
	if !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if stored := repo.byID[n.ID]; stored.Sent || stored.SentAt != nil {
		t.Fatalf("failed delivery must not mark the notice, got %+v", stored)
	}
}

func TestUpdate_KeepsDeliveryRecord(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	n, _ := svc.Create(ctx, validInput())
	if _, err := svc.MarkSent(ctx, n.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	in := validInput()
	in.Type = "mantenimiento"
	in.Title = "Mantención programada"
	updated, err := svc.Update(ctx, n.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Sent || updated.Type != domain.NoticeMaintenance {
		t.Fatalf("unexpected notice after update %+v", updated)
	}

	if _, err := svc.Update(ctx, "missing", in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
