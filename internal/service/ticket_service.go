package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/ar-tracker/internal/access"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/escalation"
	"github.com/spec-kit/ar-tracker/internal/events"
	"github.com/spec-kit/ar-tracker/internal/lifecycle"
	"github.com/spec-kit/ar-tracker/internal/repository"
	"github.com/spec-kit/ar-tracker/internal/search"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

const tracerName = "github.com/spec-kit/ar-tracker/internal/service"

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	catalog    *domain.Catalog
	dispatcher events.Dispatcher
	now        func() time.Time
	tracer     trace.Tracer
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Catalog    *domain.Catalog
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload. An empty ARNumber is generated.
type TicketCreateInput struct {
	ARNumber      string
	Title         string
	Description   string
	Product       string
	SubProduct    string
	Severity      string
	Priority      domain.TicketPriority
	Assignee      string
	AssigneeEmail string
}

// TicketSaveInput is a full-record save from the details view. Nil pointers and empty
// strings leave the stored value alone.
type TicketSaveInput struct {
	ARNumber        string
	Status          string
	Priority        string
	Severity        string
	Title           *string
	Description     *string
	ProgressLog     []string
	ResolutionNotes *string
}

// Report aggregates tickets for the staff report.
type Report struct {
	GeneratedAt time.Time
	Total       int
	ByStatus    map[domain.TicketStatus]int
	Rows        []ReportRow
}

// ReportRow is one ticket line in the report.
type ReportRow struct {
	ARNumber  string
	Requestor string
	Title     string
	Status    domain.TicketStatus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:    deps.TicketRepo,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		now:        deps.Now,
		tracer:     otel.Tracer(tracerName),
	}
	if svc.catalog == nil {
		svc.catalog = domain.DefaultCatalog()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Catalog returns the product catalog tickets are validated against.
func (s *TicketService) Catalog() *domain.Catalog {
	return s.catalog
}

// CreateTicket files a ticket on behalf of the caller. The status always starts as Assigned.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.AuthContext, input TicketCreateInput) (*domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.CreateTicket")
	defer span.End()

	now := s.now().UTC()
	ticket := &domain.Ticket{
		ARNumber:          strings.TrimSpace(input.ARNumber),
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		Severity:          strings.TrimSpace(input.Severity),
		Priority:          input.Priority,
		Status:            domain.InitialStatus,
		RequestorID:       actor.UserID,
		RequestorUsername: actor.Username,
		Assignee:          strings.TrimSpace(input.Assignee),
		AssigneeEmail:     strings.TrimSpace(input.AssigneeEmail),
		ProgressLog:       []string{},
		CreatedAt:         now,
	}
	if ticket.ARNumber == "" {
		ticket.ARNumber = domain.NewARNumber(now)
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.DefaultPriority
	}
	ticket.SetProduct(input.Product)
	if err := ticket.SetSubProduct(input.SubProduct, s.catalog); err != nil {
		return nil, recordErr(span, err)
	}
	if err := ticket.Validate(s.catalog); err != nil {
		return nil, recordErr(span, err)
	}
	span.SetAttributes(attribute.String("ar_number", ticket.ARNumber))

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, recordErr(span, apperrors.NewConflict("ar number already exists", map[string]any{"arNumber": ticket.ARNumber}))
		}
		return nil, recordErr(span, err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		ARNumber: ticket.ARNumber,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			Product:    ticket.Product,
			SubProduct: ticket.SubProduct,
			Severity:   ticket.Severity,
			Priority:   ticket.Priority,
			Assignee:   ticket.Assignee,
		},
	})
	return access.Redact(ticket, actor.Role()), nil
}

// ListTickets returns tickets owned by or assigned to userID. Requesters may only list their
// own; an empty userID means the caller.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.AuthContext, userID string) ([]domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.ListTickets")
	defer span.End()

	target := actor
	if userID != "" && userID != actor.UserID {
		if !actor.IsStaff() {
			return nil, recordErr(span, apperrors.NewAuthorizationDenied("cannot list another user's tickets"))
		}
		target = domain.AuthContext{UserID: userID}
	}

	tickets, err := s.tickets.Search(ctx, repository.TicketFilter{Participant: &target})
	if err != nil {
		return nil, recordErr(span, err)
	}
	return redactAll(tickets, actor.Role()), nil
}

// SearchTickets evaluates criteria against the store. Staff search every ticket; requesters
// only those they own or are assigned to.
func (s *TicketService) SearchTickets(ctx context.Context, actor domain.AuthContext, criteria search.Criteria, limit, offset int) ([]domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.SearchTickets")
	defer span.End()

	filter := repository.TicketFilter{Criteria: criteria.Normalize(), Limit: limit, Offset: offset}
	if !actor.IsStaff() {
		filter.Participant = &actor
	}
	tickets, err := s.tickets.Search(ctx, filter)
	if err != nil {
		return nil, recordErr(span, err)
	}
	span.SetAttributes(attribute.Int("results", len(tickets)))
	return redactAll(tickets, actor.Role()), nil
}

// GetDetails loads one ticket with the fields the caller may read.
func (s *TicketService) GetDetails(ctx context.Context, actor domain.AuthContext, arNumber string) (*domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.GetDetails", trace.WithAttributes(attribute.String("ar_number", arNumber)))
	defer span.End()

	ticket, err := s.loadForActor(ctx, actor, arNumber)
	if err != nil {
		return nil, recordErr(span, err)
	}
	return access.Redact(ticket, actor.Role()), nil
}

// SaveDetails persists an edit from the details view. Severity and priority are read-only and
// must match the stored record. The submitted progress log must equal the stored one, or carry
// exactly one extra line alongside a status change; that line is replaced by the entry written
// here so the audit timestamp and updatedAt come from the same clock.
func (s *TicketService) SaveDetails(ctx context.Context, actor domain.AuthContext, input TicketSaveInput) (*domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.SaveDetails", trace.WithAttributes(attribute.String("ar_number", input.ARNumber)))
	defer span.End()

	stored, err := s.loadForActor(ctx, actor, input.ARNumber)
	if err != nil {
		return nil, recordErr(span, err)
	}
	if sev := strings.TrimSpace(input.Severity); sev != "" && sev != stored.Severity {
		return nil, recordErr(span, apperrors.NewValidationError("severity is read-only", map[string]any{"severity": stored.Severity}))
	}
	if pr := strings.TrimSpace(input.Priority); pr != "" && pr != string(stored.Priority) {
		return nil, recordErr(span, apperrors.NewValidationError("priority is read-only", map[string]any{"priority": stored.Priority}))
	}
	if input.ResolutionNotes != nil && !access.CanEdit(actor.Role(), access.FieldResolutionNotes) {
		return nil, recordErr(span, apperrors.NewAuthorizationDenied("resolution notes require the staff capability"))
	}

	now := s.now().UTC()
	working := stored.Clone()
	changed := []string{}

	nextStatus := strings.TrimSpace(input.Status)
	if nextStatus == string(stored.Status) {
		nextStatus = ""
	}
	if input.ProgressLog != nil {
		if !lifecycle.ExtendsLog(stored.ProgressLog, input.ProgressLog) {
			return nil, recordErr(span, apperrors.NewValidationError("progress log is append-only", nil))
		}
		switch appended := len(input.ProgressLog) - len(stored.ProgressLog); {
		case appended == 0:
		case nextStatus == "":
			return nil, recordErr(span, apperrors.NewValidationError("progress log only grows with a status change", nil))
		case appended > 1:
			return nil, recordErr(span, apperrors.NewValidationError("a status change appends exactly one progress entry",
				map[string]any{"appended": appended}))
		}
	}

	if input.Title != nil && *input.Title != stored.Title {
		if err := lifecycle.SetTitle(working, *input.Title, actor, now); err != nil {
			return nil, recordErr(span, err)
		}
		changed = append(changed, string(access.FieldTitle))
	}
	if input.Description != nil && *input.Description != stored.Description {
		if err := lifecycle.SetDescription(working, *input.Description, actor, now); err != nil {
			return nil, recordErr(span, err)
		}
		changed = append(changed, string(access.FieldDescription))
	}

	statusChanged := false
	if nextStatus != "" {
		if err := lifecycle.ChangeStatus(working, nextStatus, actor, now); err != nil {
			return nil, recordErr(span, err)
		}
		statusChanged = true
		changed = append(changed, string(access.FieldStatus))
	}

	if input.ResolutionNotes != nil && *input.ResolutionNotes != stored.ResolutionNotes {
		if err := lifecycle.SetResolutionNotes(working, *input.ResolutionNotes, actor, now); err != nil {
			return nil, recordErr(span, err)
		}
		changed = append(changed, string(access.FieldResolutionNotes))
	}

	if len(changed) == 0 {
		return access.Redact(stored, actor.Role()), nil
	}
	if err := s.tickets.Update(ctx, working); err != nil {
		return nil, recordErr(span, s.mapRepoErr(err, working.ARNumber))
	}

	if statusChanged {
		s.publishStatusChanged(ctx, actor, stored.Status, working)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		ARNumber: working.ARNumber,
		Actor:    events.ActorFrom(actor),
		Payload:  events.TicketUpdatedPayload{Fields: changed},
	})
	return access.Redact(working, actor.Role()), nil
}

// ChangeStatus applies a transition server-side and writes the audit line.
func (s *TicketService) ChangeStatus(ctx context.Context, actor domain.AuthContext, arNumber, newStatus string) (*domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.ChangeStatus", trace.WithAttributes(
		attribute.String("ar_number", arNumber),
		attribute.String("status", newStatus),
	))
	defer span.End()

	if _, err := domain.ParseStatus(newStatus); err != nil {
		return nil, recordErr(span, err)
	}
	ticket, err := s.loadForActor(ctx, actor, arNumber)
	if err != nil {
		return nil, recordErr(span, err)
	}
	old := ticket.Status
	if err := lifecycle.ChangeStatus(ticket, newStatus, actor, s.now()); err != nil {
		return nil, recordErr(span, err)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, recordErr(span, s.mapRepoErr(err, arNumber))
	}
	s.publishStatusChanged(ctx, actor, old, ticket)
	return access.Redact(ticket, actor.Role()), nil
}

// GenerateReport counts tickets by status and lists them. Staff only.
func (s *TicketService) GenerateReport(ctx context.Context, actor domain.AuthContext, criteria search.Criteria) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.GenerateReport")
	defer span.End()

	if !access.CanGenerateReport(actor.Role()) {
		return nil, recordErr(span, apperrors.NewAuthorizationDenied("report requires the staff capability"))
	}
	tickets, err := s.tickets.Search(ctx, repository.TicketFilter{Criteria: criteria.Normalize()})
	if err != nil {
		return nil, recordErr(span, err)
	}

	report := &Report{
		GeneratedAt: s.now().UTC(),
		Total:       len(tickets),
		ByStatus:    make(map[domain.TicketStatus]int, len(domain.Statuses)),
		Rows:        make([]ReportRow, 0, len(tickets)),
	}
	for _, status := range domain.Statuses {
		report.ByStatus[status] = 0
	}
	for _, t := range tickets {
		report.ByStatus[t.Status]++
		report.Rows = append(report.Rows, ReportRow{
			ARNumber:  t.ARNumber,
			Requestor: t.RequestorUsername,
			Title:     t.Title,
			Status:    t.Status,
		})
	}
	return report, nil
}

// VisibleEscalations narrows an escalated set to the tickets the caller may see.
func (s *TicketService) VisibleEscalations(ctx context.Context, actor domain.AuthContext, set escalation.Set) ([]string, error) {
	if actor.IsStaff() || len(set) == 0 {
		return set.Sorted(), nil
	}
	mine, err := s.tickets.Search(ctx, repository.TicketFilter{
		Participant: &actor,
		Criteria:    search.Criteria{Status: string(domain.TicketStatusInProgress)},
	})
	if err != nil {
		return nil, err
	}
	visible := escalation.Set{}
	for _, t := range mine {
		if set.Has(t.ARNumber) {
			visible[t.ARNumber] = struct{}{}
		}
	}
	return visible.Sorted(), nil
}

// Snapshot lists every ticket. It feeds the escalation monitor.
func (s *TicketService) Snapshot(ctx context.Context) ([]domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.Snapshot")
	defer span.End()

	tickets, err := s.tickets.Search(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, recordErr(span, err)
	}
	return tickets, nil
}

// PublishEscalated emits one event per newly escalated ticket.
func (s *TicketService) PublishEscalated(ctx context.Context, tickets []domain.Ticket) {
	for i := range tickets {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketEscalated,
			ARNumber: tickets[i].ARNumber,
			Payload: events.TicketEscalatedPayload{
				Severity:    tickets[i].Severity,
				ClockAnchor: tickets[i].ClockAnchor(),
				Assignee:    tickets[i].Assignee,
			},
		})
	}
}

func (s *TicketService) loadForActor(ctx context.Context, actor domain.AuthContext, arNumber string) (*domain.Ticket, error) {
	arNumber = strings.TrimSpace(arNumber)
	if arNumber == "" {
		return nil, apperrors.NewValidationError("arNumber required", nil)
	}
	ticket, err := s.tickets.GetByARNumber(ctx, arNumber)
	if err != nil {
		return nil, s.mapRepoErr(err, arNumber)
	}
	if !actor.IsStaff() && !ticket.IsParticipant(actor) {
		return nil, apperrors.NewAuthorizationDenied("ticket belongs to another user")
	}
	return ticket, nil
}

func (s *TicketService) mapRepoErr(err error, arNumber string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"arNumber": arNumber})
	}
	return err
}

func (s *TicketService) publishStatusChanged(ctx context.Context, actor domain.AuthContext, old domain.TicketStatus, ticket *domain.Ticket) {
	entry := ""
	if n := len(ticket.ProgressLog); n > 0 {
		entry = ticket.ProgressLog[n-1]
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		ARNumber: ticket.ARNumber,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old,
			NewStatus: ticket.Status,
			LogEntry:  entry,
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func redactAll(tickets []domain.Ticket, role domain.Role) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		out = append(out, *access.Redact(&tickets[i], role))
	}
	return out
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
