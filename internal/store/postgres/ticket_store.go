package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

const ticketColumns = `id, title, description, created_by, claimed_by, status, auto_complete_timeout_at, created_at, updated_at`

// Partial unique index on tickets (created_by) for 'new' and 'active' rows.
const openTicketConstraint = "idx_tickets_open_per_customer"

// TicketStore is the Postgres-backed ticket store. ConditionalUpdate is a
// single guarded UPDATE whose WHERE clause carries the expected fields, so
// concurrent writers against one ticket id are ordered by the database and
// at most one matching precondition wins.
type TicketStore struct {
	pool *pgxpool.Pool
}

// NewTicketStore instantiates the store.
func NewTicketStore(pool *pgxpool.Pool) *TicketStore {
	return &TicketStore{pool: pool}
}

var ticketIndexColumns = map[string]string{
	store.TicketIndexCreatedBy: "created_by",
	store.TicketIndexClaimedBy: "claimed_by",
	store.TicketIndexStatus:    "status",
}

func (s *TicketStore) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO tickets (id, title, description, created_by, claimed_by, status, auto_complete_timeout_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.CreatedBy,
		ticket.ClaimedBy,
		ticket.Status,
		ticket.AutoCompleteTimeoutAt,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		if uniqueConstraint(err) == openTicketConstraint {
			return nil, apperrors.NewConflict("customer already has an open ticket", map[string]any{"created_by": ticket.CreatedBy})
		}
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("ticket already exists", map[string]any{"id": ticket.ID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return ticket, nil
}

func (s *TicketStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	ticket, err := scanTicket(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return ticket, nil
}

func (s *TicketStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Ticket, error) {
	if len(ids) == 0 {
		return []*domain.Ticket{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id = ANY($1) ORDER BY created_at, id`, ticketColumns)
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *TicketStore) GetByIndex(ctx context.Context, index, value string) ([]*domain.Ticket, error) {
	column, ok := ticketIndexColumns[index]
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown index %q on ticket", index))
	}
	var (
		query string
		args  []any
	)
	if column == "claimed_by" && value == "" {
		query = fmt.Sprintf(`SELECT %s FROM tickets WHERE claimed_by IS NULL ORDER BY created_at, id`, ticketColumns)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM tickets WHERE %s=$1 ORDER BY created_at, id`, ticketColumns, column)
		args = append(args, value)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (s *TicketStore) ConditionalUpdate(ctx context.Context, id string, expected, update store.Fields) (*domain.Ticket, error) {
	sets := []string{"updated_at=NOW()"}
	conds := []string{}
	args := []any{id}

	for name, value := range update {
		column, sqlValue, err := ticketFieldArg(name, value)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		args = append(args, sqlValue)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	for name, value := range expected {
		column, sqlValue, err := ticketFieldArg(name, value)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if sqlValue == nil {
			conds = append(conds, fmt.Sprintf("%s IS NULL", column))
			continue
		}
		args = append(args, sqlValue)
		conds = append(conds, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	where := "id=$1"
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), where, ticketColumns)

	ticket, err := scanTicket(s.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	// No row matched: absent ticket and failed precondition look the same
	// to the UPDATE, so disambiguate with a follow-up read.
	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.NewPreconditionFailed("ticket state changed", map[string]any{"id": id})
}

func (s *TicketStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE tickets CASCADE`); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ticketFieldArg maps a declared field name and value to its column and SQL
// argument. A "" claimed_by and a nil timeout translate to SQL NULL.
func ticketFieldArg(name string, value any) (string, any, error) {
	switch name {
	case store.TicketFieldStatus:
		status, ok := value.(domain.TicketStatus)
		if !ok {
			return "", nil, fmt.Errorf("status: expected TicketStatus, got %T", value)
		}
		return "status", string(status), nil
	case store.TicketFieldClaimedBy:
		engineerID, ok := value.(string)
		if !ok {
			return "", nil, fmt.Errorf("claimed_by: expected string, got %T", value)
		}
		if engineerID == "" {
			return "claimed_by", nil, nil
		}
		return "claimed_by", engineerID, nil
	case store.TicketFieldTimeout:
		if value == nil {
			return "auto_complete_timeout_at", nil, nil
		}
		at, ok := value.(time.Time)
		if !ok {
			return "", nil, fmt.Errorf("auto_complete_timeout_at: expected time.Time, got %T", value)
		}
		return "auto_complete_timeout_at", at, nil
	default:
		return "", nil, fmt.Errorf("unknown field %q on ticket", name)
	}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.CreatedBy,
		&ticket.ClaimedBy,
		&ticket.Status,
		&ticket.AutoCompleteTimeoutAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	result := []*domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		result = append(result, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return result, nil
}
