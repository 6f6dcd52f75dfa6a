package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/search"
)

var (
	// ErrNotFound is returned when no ticket has the requested AR number.
	ErrNotFound = errors.New("ticket not found")
	// ErrDuplicate is returned when an AR number is already taken.
	ErrDuplicate = errors.New("duplicate ar number")
)

const uniqueViolation = "23505"

// TicketFilter narrows a ticket listing.
type TicketFilter struct {
	Criteria search.Criteria
	// Participant restricts results to tickets the identity owns or is assigned to.
	Participant *domain.AuthContext
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByARNumber(ctx context.Context, arNumber string) (*domain.Ticket, error)
	Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `ar_number, title, description, product, sub_product, severity, priority, status,
       requestor_id, requestor_username, assignee, assignee_email, progress_log, resolution_notes,
       created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.pool.Exec(ctx, query, ticketArgs(ticket)...)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$2, description=$3, product=$4, sub_product=$5, severity=$6,
            priority=$7, status=$8, requestor_id=$9, requestor_username=$10, assignee=$11,
            assignee_email=$12, progress_log=$13, resolution_notes=$14, created_at=$15, updated_at=$16
        WHERE ar_number=$1`
	cmd, err := r.pool.Exec(ctx, query, ticketArgs(ticket)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByARNumber(ctx context.Context, arNumber string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ar_number=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if p := filter.Participant; p != nil {
		args = append(args, p.UserID, p.Username, p.Email)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"((requestor_id <> '' AND requestor_id = $%d) OR (assignee <> '' AND assignee = $%d) OR (assignee_email <> '' AND $%d <> '' AND lower(assignee_email) = lower($%d)))",
			n-2, n-1, n, n))
	}
	clauses, args = search.Where(filter.Criteria, clauses, args)

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, ar_number`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func ticketArgs(t *domain.Ticket) []any {
	log := t.ProgressLog
	if log == nil {
		log = []string{}
	}
	return []any{
		t.ARNumber,
		t.Title,
		t.Description,
		t.Product,
		t.SubProduct,
		t.Severity,
		string(t.Priority),
		string(t.Status),
		t.RequestorID,
		t.RequestorUsername,
		t.Assignee,
		t.AssigneeEmail,
		log,
		t.ResolutionNotes,
		t.CreatedAt,
		t.UpdatedAt,
	}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		priority string
		status   string
	)
	if err := row.Scan(
		&ticket.ARNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.Product,
		&ticket.SubProduct,
		&ticket.Severity,
		&priority,
		&status,
		&ticket.RequestorID,
		&ticket.RequestorUsername,
		&ticket.Assignee,
		&ticket.AssigneeEmail,
		&ticket.ProgressLog,
		&ticket.ResolutionNotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Priority = domain.TicketPriority(priority)
	ticket.Status = domain.TicketStatus(status)
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	if ticket.UpdatedAt != nil {
		updated := ticket.UpdatedAt.UTC()
		ticket.UpdatedAt = &updated
	}
	return &ticket, nil
}
