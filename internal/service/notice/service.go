package notice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/mail"
	noticerepo "aguas-del-valle/internal/repository/notice"
)

const maxTitleLength = 200

var tagPattern = regexp.MustCompile(`<[^>]*>`)

type customerGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// Options configures mail delivery of notices.
type Options struct {
	CompanyName string
	MailFrom    string
	Mailer      mail.Sender
	Logger      *log.Logger
	Now         func() time.Time
}

// Service creates and dispatches customer notices.
type Service struct {
	repo      noticerepo.Repository
	customers customerGetter
	mailer    mail.Sender
	logger    *log.Logger
	now       func() time.Time
	company   string
	mailFrom  string
}

// New creates a Service.
func New(repo noticerepo.Repository, customers customerGetter, opts Options) *Service {
	s := &Service{
		repo:      repo,
		customers: customers,
		mailer:    opts.Mailer,
		logger:    opts.Logger,
		now:       opts.Now,
		company:   opts.CompanyName,
		mailFrom:  opts.MailFrom,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.company == "" {
		s.company = "Aguas del Valle"
	}
	if s.mailer == nil {
		s.mailer = mail.NewLogSender(s.logger)
	}
	return s
}

// Input carries the editable notice fields. A zero Date means now.
type Input struct {
	CustomerID string    `json:"customerId"`
	Date       time.Time `json:"date"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
}

// Create stores an unsent notice.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Notice, error) {
	n, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	if n.Date.IsZero() {
		n.Date = s.now().UTC()
	}
	return s.repo.Create(ctx, n)
}

// Update edits the text of a notice; its delivery record is kept.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Notice, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	n, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	n.ID = id
	return s.repo.Update(ctx, n)
}

// Get returns one notice.
func (s *Service) Get(ctx context.Context, id string) (*domain.Notice, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a notice.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns notices newest first, optionally filtered by delivery status.
func (s *Service) List(ctx context.Context, sent *bool, limit int) ([]domain.Notice, error) {
	return s.repo.List(ctx, noticerepo.ListFilter{Sent: sent, Limit: limit})
}

// ListByCustomer returns one customer's notices newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Notice, error) {
	return s.repo.ListByCustomer(ctx, customerID, limit)
}

// MarkSent records a delivery made outside the system. Marking twice
// overwrites the timestamp.
func (s *Service) MarkSent(ctx context.Context, id string) (*domain.Notice, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	marked, err := s.recordDelivery(ctx, n)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("notice: %s marked sent", marked.ID)
	return marked, nil
}

// Send mails the notice to its customer and then marks it sent. Sending an
// already sent notice delivers it again. A failed delivery leaves the notice
// untouched.
func (s *Service) Send(ctx context.Context, id string) (*domain.Notice, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, n.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer of notice %s: %w", n.ID, err)
	}
	if n.Sent {
		s.logger.Printf("notice: re-sending %s to %s", n.ID, customer.Email)
	}

	msg := mail.Message{
		From:    s.mailFrom,
		To:      []string{customer.Email},
		Subject: fmt.Sprintf("%s - %s", n.Title, s.company),
		Body:    noticeBody(*n, *customer, s.company),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Printf("notice: send %s to %s failed: %v", n.ID, customer.Email, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}

	sent, err := s.recordDelivery(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("record delivery of notice %s: %w", n.ID, err)
	}
	s.logger.Printf("notice: sent %s to %s", n.ID, customer.Email)
	return sent, nil
}

func (s *Service) recordDelivery(ctx context.Context, n *domain.Notice) (*domain.Notice, error) {
	n.MarkSent(s.now().UTC())
	return s.repo.SaveDelivery(ctx, *n)
}

func (s *Service) prepare(ctx context.Context, in Input) (domain.Notice, error) {
	var errs domain.ValidationErrors

	n := domain.Notice{
		CustomerID: strings.TrimSpace(in.CustomerID),
		Date:       in.Date,
		Title:      strings.TrimSpace(tagPattern.ReplaceAllString(in.Title, "")),
		Message:    strings.TrimSpace(tagPattern.ReplaceAllString(in.Message, "")),
	}
	if n.CustomerID == "" {
		errs.Add("customerId", "customer is required")
	}
	t, ok := domain.ParseNoticeType(in.Type)
	if !ok {
		errs.Add("type", "unknown notice type")
	}
	n.Type = t
	switch {
	case n.Title == "":
		errs.Add("title", "title is required")
	case utf8.RuneCountInString(n.Title) > maxTitleLength:
		errs.Add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if n.Message == "" {
		errs.Add("message", "message is required")
	}
	if err := errs.Err(); err != nil {
		return domain.Notice{}, err
	}

	if _, err := s.customers.GetByID(ctx, n.CustomerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Notice{}, domain.ValidationError{Field: "customerId", Message: "customer does not exist"}
		}
		return domain.Notice{}, err
	}
	return n, nil
}

func noticeBody(n domain.Notice, c domain.Customer, company string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimado/a %s,\n\n", c.Name)
	b.WriteString(n.Message)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Tipo de Aviso: %s\n", n.Type.Label())
	fmt.Fprintf(&b, "Fecha: %s\n\n", n.Date.Format("02/01/2006 15:04"))
	b.WriteString("Gracias por su atención.\n\n")
	b.WriteString(company)
	b.WriteString("\n")
	return b.String()
}
