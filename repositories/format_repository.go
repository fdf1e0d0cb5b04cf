package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrFormatNotFound     = errors.New("format not found")
	ErrFormatNameConflict = errors.New("format name already exists")
	ErrFormatInUse        = errors.New("format is referenced by a tournament")
)

type FormatRepository interface {
	Create(ctx context.Context, format *models.Format) error
	GetByID(ctx context.Context, id int) (*models.Format, error)
	GetAll(ctx context.Context) ([]models.Format, error)
	Delete(ctx context.Context, id int) error
}

type postgresFormatRepository struct {
	db SQLExecutor
}

func NewPostgresFormatRepository(db *sql.DB) FormatRepository {
	return &postgresFormatRepository{db: db}
}

func (r *postgresFormatRepository) Create(ctx context.Context, format *models.Format) error {
	query := `INSERT INTO formats (name, settings_json) VALUES ($1, $2) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, format.Name, format.SettingsJSON).Scan(&format.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrFormatNameConflict
	}
	return err
}

func (r *postgresFormatRepository) GetByID(ctx context.Context, id int) (*models.Format, error) {
	query := `SELECT id, name, settings_json FROM formats WHERE id = $1`
	format := &models.Format{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&format.ID, &format.Name, &format.SettingsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFormatNotFound
		}
		return nil, err
	}
	return format, nil
}

func (r *postgresFormatRepository) GetAll(ctx context.Context) ([]models.Format, error) {
	query := `SELECT id, name, settings_json FROM formats ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	formats := make([]models.Format, 0)
	for rows.Next() {
		var f models.Format
		if scanErr := rows.Scan(&f.ID, &f.Name, &f.SettingsJSON); scanErr != nil {
			return nil, scanErr
		}
		formats = append(formats, f)
	}
	return formats, rows.Err()
}

func (r *postgresFormatRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM formats WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrFormatInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrFormatNotFound)
}
