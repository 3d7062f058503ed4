package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/padelhub/tournament-system/models"
)

var (
	ErrCourtNotFound = errors.New("court not found")
	ErrCourtInUse    = errors.New("court is referenced by a booking")
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	List(ctx context.Context) ([]models.Court, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Court, error)
	ListIndoorAvailable(ctx context.Context, exec SQLExecutor) ([]models.Court, error)
	Update(ctx context.Context, court *models.Court) error
	Delete(ctx context.Context, id int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCourtRepository) Create(ctx context.Context, court *models.Court) error {
	query := `
		INSERT INTO courts (name, location, is_indoor, is_available)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, court.Name, court.Location, court.IsIndoor, court.IsAvailable).
		Scan(&court.ID, &court.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create court: %w", err)
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `SELECT id, name, location, is_indoor, is_available, created_at FROM courts WHERE id = $1`

	court := &models.Court{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&court.ID, &court.Name, &court.Location, &court.IsIndoor, &court.IsAvailable, &court.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to scan court by id %d: %w", id, err)
	}
	return court, nil
}

func (r *postgresCourtRepository) List(ctx context.Context) ([]models.Court, error) {
	query := `SELECT id, name, location, is_indoor, is_available, created_at FROM courts ORDER BY id ASC`
	return r.queryCourts(ctx, r.db, query)
}

// ListByIDs возвращает корты в порядке запрошенных идентификаторов —
// планировщик обходит корты в порядке, заданном оператором.
func (r *postgresCourtRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Court, error) {
	if len(ids) == 0 {
		return []models.Court{}, nil
	}

	query := `SELECT id, name, location, is_indoor, is_available, created_at FROM courts WHERE id = ANY($1)`
	courts, err := r.queryCourts(ctx, r.executor(exec), query, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[int]models.Court, len(courts))
	for _, c := range courts {
		byID[c.ID] = c
	}
	ordered := make([]models.Court, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrCourtNotFound, id)
		}
		ordered = append(ordered, c)
	}
	return ordered, nil
}

func (r *postgresCourtRepository) ListIndoorAvailable(ctx context.Context, exec SQLExecutor) ([]models.Court, error) {
	query := `
		SELECT id, name, location, is_indoor, is_available, created_at
		FROM courts
		WHERE is_indoor = TRUE AND is_available = TRUE
		ORDER BY id ASC`
	return r.queryCourts(ctx, r.executor(exec), query)
}

func (r *postgresCourtRepository) Update(ctx context.Context, court *models.Court) error {
	query := `UPDATE courts SET name = $1, location = $2, is_indoor = $3, is_available = $4 WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, court.Name, court.Location, court.IsIndoor, court.IsAvailable, court.ID)
	if err != nil {
		return fmt.Errorf("failed to update court %d: %w", court.ID, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM courts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "court_bookings_court_id_fkey" {
			return ErrCourtInUse
		}
		return fmt.Errorf("failed to delete court %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) queryCourts(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Court, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courts: %w", err)
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	for rows.Next() {
		var c models.Court
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.IsIndoor, &c.IsAvailable, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", err)
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}
