package schedule

import (
	"context"
	"database/sql"
	"errors"
)

// Repository reads weekly schedule slots from Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ClassExists reports whether the class id is known.
func (r *Repository) ClassExists(ctx context.Context, classID int64) (bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT 1 FROM clases WHERE id = $1`, classID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Slots returns the class's weekly slots with times already in HH:MM.
// Ordering is applied by the service.
func (r *Repository) Slots(ctx context.Context, classID int64) ([]Slot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			h.dia_semana,
			to_char(h.hora_inicio, 'HH24:MI') AS hora_inicio,
			to_char(h.hora_fin, 'HH24:MI') AS hora_fin
		FROM horarios h
		WHERE h.clase_id = $1
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Slot{}
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.DiaSemana, &s.HoraInicio, &s.HoraFin); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
