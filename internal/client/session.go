package client

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/access"
	"github.com/spec-kit/ar-tracker/internal/api/dto"
	"github.com/spec-kit/ar-tracker/internal/auth"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/escalation"
	"github.com/spec-kit/ar-tracker/internal/lifecycle"
	"github.com/spec-kit/ar-tracker/internal/search"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

// SessionOptions configures a Session. Zero values fall back to defaults.
type SessionOptions struct {
	StaffGroup string
	Now        func() time.Time
	Logger     *zap.Logger
}

// Session is one signed-in user's view of the store. The identity is resolved once from the
// bearer token; the ticket snapshot is swapped atomically and only after the store confirms.
type Session struct {
	client   *Client
	identity domain.AuthContext
	now      func() time.Time
	logger   *zap.Logger
	tickets  atomic.Pointer[[]domain.Ticket]
}

// NewSession derives the caller identity from the client's token.
func NewSession(c *Client, opts SessionOptions) (*Session, error) {
	identity, err := auth.ContextFromToken(c.Token(), opts.StaffGroup)
	if err != nil {
		return nil, err
	}
	s := &Session{client: c, identity: identity, now: opts.Now, logger: opts.Logger}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	empty := []domain.Ticket{}
	s.tickets.Store(&empty)
	return s, nil
}

// Identity returns the resolved caller.
func (s *Session) Identity() domain.AuthContext {
	return s.identity
}

// Role returns the caller's role.
func (s *Session) Role() domain.Role {
	return s.identity.Role()
}

// Client exposes the underlying transport.
func (s *Session) Client() *Client {
	return s.client
}

// Tickets returns a copy of the current snapshot.
func (s *Session) Tickets() []domain.Ticket {
	current := *s.tickets.Load()
	out := make([]domain.Ticket, 0, len(current))
	for i := range current {
		out = append(out, *current[i].Clone())
	}
	return out
}

// Refresh replaces the snapshot with the caller's tickets. On error the snapshot is kept.
func (s *Session) Refresh(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.client.ListTickets(ctx, s.identity.UserID, s.Role())
	if err != nil {
		return nil, err
	}
	s.tickets.Store(&tickets)
	return s.Tickets(), nil
}

// FilterLocal evaluates criteria against the snapshot without a round trip.
func (s *Session) FilterLocal(criteria search.Criteria) []domain.Ticket {
	return search.Filter(s.Tickets(), criteria)
}

// Search runs criteria on the store.
func (s *Session) Search(ctx context.Context, criteria search.Criteria) ([]domain.Ticket, error) {
	return s.client.Search(ctx, criteria, s.Role())
}

// Details fetches one ticket.
func (s *Session) Details(ctx context.Context, arNumber string) (*domain.Ticket, error) {
	return s.client.GetDetails(ctx, arNumber, s.identity.UserID)
}

// Create files a ticket as the session user. The AR number is generated here so a retry by
// the caller collides with 409 instead of filing twice.
func (s *Session) Create(ctx context.Context, req dto.CreateTicketRequest) (*domain.Ticket, error) {
	if req.ARNumber == "" {
		req.ARNumber = domain.NewARNumber(s.now().UTC())
	}
	req.UserID = s.identity.UserID
	created, err := s.client.CreateTicket(ctx, req)
	if err != nil {
		return nil, err
	}
	s.upsert(*created)
	return created, nil
}

// ChangeStatus checks the transition on a working copy, then sends only the new status; the
// store writes the audit entry with its own clock. The snapshot entry is swapped once the store
// accepts it.
func (s *Session) ChangeStatus(ctx context.Context, arNumber, newStatus string) (*domain.Ticket, error) {
	if _, err := domain.ParseStatus(newStatus); err != nil {
		return nil, err
	}
	current, err := s.client.GetDetails(ctx, arNumber, s.identity.UserID)
	if err != nil {
		return nil, err
	}
	working := current.Clone()
	if err := lifecycle.ChangeStatus(working, newStatus, s.identity, s.now().UTC()); err != nil {
		return nil, err
	}
	saved, err := s.client.SaveDetails(ctx, dto.SaveTicketRequest{
		ARNumber: arNumber,
		Status:   string(working.Status),
		UserID:   s.identity.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.upsert(*saved)
	return saved, nil
}

// SaveResolutionNotes writes the staff-only notes field.
func (s *Session) SaveResolutionNotes(ctx context.Context, arNumber, notes string) (*domain.Ticket, error) {
	if !access.CanEdit(s.Role(), access.FieldResolutionNotes) {
		return nil, apperrors.NewAuthorizationDenied("resolution notes require the staff capability")
	}
	saved, err := s.client.SaveDetails(ctx, dto.SaveTicketRequest{
		ARNumber:        arNumber,
		ResolutionNotes: &notes,
		UserID:          s.identity.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.upsert(*saved)
	return saved, nil
}

// Report requests the staff report.
func (s *Session) Report(ctx context.Context, criteria search.Criteria) (*dto.ReportResponse, error) {
	if !access.CanGenerateReport(s.Role()) {
		return nil, apperrors.NewAuthorizationDenied("reports require the staff capability")
	}
	return s.client.Report(ctx, criteria)
}

// Watch evaluates escalations over the snapshot every interval until ctx is cancelled. When
// refresh is set the snapshot is reloaded from the store before each evaluation.
func (s *Session) Watch(ctx context.Context, interval time.Duration, refresh bool, onResult func(escalation.Result)) error {
	source := escalation.SourceFunc(func(ctx context.Context) ([]domain.Ticket, error) {
		if refresh {
			return s.Refresh(ctx)
		}
		return s.Tickets(), nil
	})
	monitor := escalation.NewMonitor(source, escalation.MonitorOptions{
		Interval: interval,
		Now:      s.now,
		Logger:   s.logger,
		Publisher: escalation.PublisherFunc(func(_ context.Context, r escalation.Result) error {
			if onResult != nil {
				onResult(r)
			}
			return nil
		}),
	})
	return monitor.Run(ctx)
}

func (s *Session) upsert(ticket domain.Ticket) {
	current := *s.tickets.Load()
	next := make([]domain.Ticket, 0, len(current)+1)
	replaced := false
	for i := range current {
		if current[i].ARNumber == ticket.ARNumber {
			next = append(next, ticket)
			replaced = true
			continue
		}
		next = append(next, current[i])
	}
	if !replaced {
		next = append([]domain.Ticket{ticket}, next...)
	}
	s.tickets.Store(&next)
}
