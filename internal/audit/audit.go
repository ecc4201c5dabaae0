package audit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded attendance write, as published on the queue.
type Event struct {
	AlumnoID int64  `json:"alumno_id"`
	ClaseID  int64  `json:"clase_id"`
	Fecha    string `json:"fecha"`
	Estado   string `json:"estado"`
	Metodo   string `json:"metodo"`
}

// Repository appends audit rows in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Append writes one audit row with a fresh id.
func (r *Repository) Append(ctx context.Context, evt Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO registros_auditoria (id, alumno_id, clase_id, fecha, estado, metodo, registrado_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), evt.AlumnoID, evt.ClaseID, evt.Fecha, evt.Estado, evt.Metodo, time.Now().UTC())
	return err
}
