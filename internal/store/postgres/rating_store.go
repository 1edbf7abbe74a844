package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

const ratingColumns = `id, ticket_id, rated_user_id, created_by, rating, notes, created_at, updated_at`

// RatingStore is the Postgres-backed rating store. The one-rating-per-ticket
// invariant lives in a unique index on ticket_id; a violated insert surfaces
// as CONFLICT.
type RatingStore struct {
	pool *pgxpool.Pool
}

// NewRatingStore instantiates the store.
func NewRatingStore(pool *pgxpool.Pool) *RatingStore {
	return &RatingStore{pool: pool}
}

var ratingIndexColumns = map[string]string{
	store.RatingIndexTicket:    "ticket_id",
	store.RatingIndexRatedUser: "rated_user_id",
	store.RatingIndexCreatedBy: "created_by",
}

func (s *RatingStore) Create(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO ratings (id, ticket_id, rated_user_id, created_by, rating, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		rating.ID,
		rating.TicketID,
		rating.RatedUserID,
		rating.CreatedBy,
		rating.Rating,
		rating.Notes,
	).Scan(&rating.CreatedAt, &rating.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("ticket already rated", map[string]any{"ticket_id": rating.TicketID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return rating, nil
}

func (s *RatingStore) GetByID(ctx context.Context, id string) (*domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE id=$1`, ratingColumns)
	rating, err := scanRating(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("rating", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return rating, nil
}

func (s *RatingStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Rating, error) {
	if len(ids) == 0 {
		return []*domain.Rating{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE id = ANY($1) ORDER BY created_at, id`, ratingColumns)
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer rows.Close()
	return scanRatings(rows)
}

func (s *RatingStore) GetByIndex(ctx context.Context, index, value string) ([]*domain.Rating, error) {
	column, ok := ratingIndexColumns[index]
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown index %q on rating", index))
	}
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE %s=$1 ORDER BY created_at, id`, ratingColumns, column)
	rows, err := s.pool.Query(ctx, query, value)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer rows.Close()
	return scanRatings(rows)
}

func (s *RatingStore) ConditionalUpdate(ctx context.Context, id string, expected, update store.Fields) (*domain.Rating, error) {
	sets := []string{"updated_at=NOW()"}
	conds := []string{}
	args := []any{id}

	for name, value := range update {
		column, sqlValue, err := ratingFieldArg(name, value)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		args = append(args, sqlValue)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	for name, value := range expected {
		column, sqlValue, err := ratingFieldArg(name, value)
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
	query := fmt.Sprintf(`UPDATE ratings SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), where, ratingColumns)

	rating, err := scanRating(s.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return rating, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}
	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperrors.NewPreconditionFailed("rating state changed", map[string]any{"id": id})
}

func (s *RatingStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE ratings`); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func ratingFieldArg(name string, value any) (string, any, error) {
	switch name {
	case store.RatingFieldRating:
		score, ok := value.(int)
		if !ok {
			return "", nil, fmt.Errorf("rating: expected int, got %T", value)
		}
		return "rating", score, nil
	case store.RatingFieldNotes:
		if value == nil {
			return "notes", nil, nil
		}
		notes, ok := value.(string)
		if !ok {
			return "", nil, fmt.Errorf("notes: expected string, got %T", value)
		}
		return "notes", notes, nil
	default:
		return "", nil, fmt.Errorf("unknown field %q on rating", name)
	}
}

func scanRating(row pgx.Row) (*domain.Rating, error) {
	var rating domain.Rating
	if err := row.Scan(
		&rating.ID,
		&rating.TicketID,
		&rating.RatedUserID,
		&rating.CreatedBy,
		&rating.Rating,
		&rating.Notes,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rating, nil
}

func scanRatings(rows pgx.Rows) ([]*domain.Rating, error) {
	result := []*domain.Rating{}
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		result = append(result, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return result, nil
}
