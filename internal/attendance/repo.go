package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ClassOwnedBy reports whether the class belongs to the teacher.
func (r *Repository) ClassOwnedBy(ctx context.Context, classID, teacherID int64) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM clases
		WHERE id = $1 AND profesor_id = $2
	`, classID, teacherID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Enrolled reports whether the student is enrolled in the class.
func (r *Repository) Enrolled(ctx context.Context, studentID, classID int64) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM inscripciones
		WHERE alumno_id = $1 AND clase_id = $2
	`, studentID, classID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// InsertIfAbsent writes the record unless one already exists for the
// same (alumno, clase, fecha). The unique constraint makes the write
// atomic, so two racing requests cannot both insert. Returns whether
// a row was written.
func (r *Repository) InsertIfAbsent(ctx context.Context, rec DayRecord) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO asistencias (alumno_id, clase_id, fecha, estado)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (alumno_id, clase_id, fecha) DO NOTHING
	`, rec.AlumnoID, rec.ClaseID, rec.Fecha, rec.Estado)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n == 1, nil
}

// Upsert writes the record, replacing estado when the natural key
// already exists.
func (r *Repository) Upsert(ctx context.Context, rec DayRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO asistencias (alumno_id, clase_id, fecha, estado)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (alumno_id, clase_id, fecha) DO UPDATE SET estado = EXCLUDED.estado
	`, rec.AlumnoID, rec.ClaseID, rec.Fecha, rec.Estado); err != nil {
		return err
	}
	return tx.Commit()
}

// TeacherClasses lists a teacher's classes with enrollment counts,
// today's presence count and the most recent attendance date.
func (r *Repository) TeacherClasses(ctx context.Context, teacherID int64, today string) ([]ClassSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.id,
			c.nombre,
			(SELECT COUNT(DISTINCT i.alumno_id)
			 FROM inscripciones i
			 WHERE i.clase_id = c.id) AS total_alumnos,
			(SELECT COUNT(DISTINCT a.alumno_id)
			 FROM asistencias a
			 WHERE a.clase_id = c.id
			 AND a.fecha = $2
			 AND a.estado = 'Presente') AS presentes_hoy,
			(SELECT MAX(a.fecha)
			 FROM asistencias a
			 WHERE a.clase_id = c.id) AS ultima_asistencia
		FROM clases c
		WHERE c.profesor_id = $1
		ORDER BY c.nombre
	`, teacherID, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []ClassSummary{}
	for rows.Next() {
		var cs ClassSummary
		var last sql.NullTime
		if err := rows.Scan(&cs.ID, &cs.Nombre, &cs.TotalAlumnos, &cs.PresentesHoy, &last); err != nil {
			return nil, err
		}
		cs.UltimaAsistencia = formatNullDate(last)
		res = append(res, cs)
	}
	return res, rows.Err()
}

// DailyRollups groups the class's records by date, newest first,
// capped at seven days. The enrolled total is a subquery and is not
// filtered by the window.
func (r *Repository) DailyRollups(ctx context.Context, classID int64) ([]DailyRollup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			a.fecha,
			COUNT(DISTINCT CASE WHEN a.estado = 'Presente' THEN a.alumno_id END) AS presentes,
			COUNT(DISTINCT CASE WHEN a.estado = 'Ausente' THEN a.alumno_id END) AS ausentes,
			(SELECT COUNT(DISTINCT alumno_id)
			 FROM inscripciones
			 WHERE clase_id = $1) AS total_alumnos
		FROM asistencias a
		WHERE a.clase_id = $1
		GROUP BY a.fecha
		ORDER BY a.fecha DESC
		LIMIT 7
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []DailyRollup{}
	for rows.Next() {
		var dr DailyRollup
		var fecha time.Time
		if err := rows.Scan(&fecha, &dr.Presentes, &dr.Ausentes, &dr.TotalAlumnos); err != nil {
			return nil, err
		}
		dr.Fecha = fecha.Format(dateLayout)
		res = append(res, dr)
	}
	return res, rows.Err()
}

// Roster lists enrolled students with totals and latest status.
// Students without records still appear, with null status and date.
func (r *Repository) Roster(ctx context.Context, classID int64) ([]RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT
			u.id,
			u.nombre,
			u.email,
			(SELECT COUNT(*)
			 FROM asistencias a
			 WHERE a.alumno_id = u.id
			 AND a.clase_id = $1) AS total_asistencias,
			(SELECT a.estado
			 FROM asistencias a
			 WHERE a.alumno_id = u.id
			 AND a.clase_id = $1
			 ORDER BY a.fecha DESC
			 LIMIT 1) AS ultimo_estado,
			(SELECT a.fecha
			 FROM asistencias a
			 WHERE a.alumno_id = u.id
			 AND a.clase_id = $1
			 ORDER BY a.fecha DESC
			 LIMIT 1) AS ultima_fecha
		FROM usuarios u
		JOIN inscripciones i ON u.id = i.alumno_id
		WHERE i.clase_id = $1
		ORDER BY u.nombre
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []RosterEntry{}
	for rows.Next() {
		var re RosterEntry
		var estado sql.NullString
		var fecha sql.NullTime
		if err := rows.Scan(&re.ID, &re.Nombre, &re.Email, &re.TotalAsistencias, &estado, &fecha); err != nil {
			return nil, err
		}
		if estado.Valid {
			re.UltimoEstado = &estado.String
		}
		re.UltimaFecha = formatNullDate(fecha)
		res = append(res, re)
	}
	return res, rows.Err()
}

// EnrolledStudents lists the class roster ordered by student name.
func (r *Repository) EnrolledStudents(ctx context.Context, classID int64) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.nombre
		FROM usuarios u
		JOIN inscripciones i ON u.id = i.alumno_id
		WHERE i.clase_id = $1
		ORDER BY u.nombre
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Student{}
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Nombre); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// ClassRecords returns every attendance row of the class, newest first.
func (r *Repository) ClassRecords(ctx context.Context, classID int64) ([]StudentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT alumno_id, fecha, estado
		FROM asistencias
		WHERE clase_id = $1
		ORDER BY fecha DESC
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []StudentRecord{}
	for rows.Next() {
		var sr StudentRecord
		var fecha time.Time
		if err := rows.Scan(&sr.AlumnoID, &fecha, &sr.Estado); err != nil {
			return nil, err
		}
		sr.Fecha = fecha.Format(dateLayout)
		res = append(res, sr)
	}
	return res, rows.Err()
}

// TodaySnapshot left-joins enrollment against the given day's records.
func (r *Repository) TodaySnapshot(ctx context.Context, classID int64, today string) (TodaySnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT i.alumno_id) AS total_alumnos,
			COUNT(DISTINCT CASE WHEN a.estado = 'Presente' THEN a.alumno_id END) AS presentes,
			COUNT(DISTINCT CASE WHEN a.estado = 'Ausente' THEN a.alumno_id END) AS ausentes
		FROM inscripciones i
		LEFT JOIN asistencias a ON i.alumno_id = a.alumno_id
			AND i.clase_id = a.clase_id
			AND a.fecha = $2
		WHERE i.clase_id = $1
	`, classID, today)
	var snap TodaySnapshot
	if err := row.Scan(&snap.TotalAlumnos, &snap.Presentes, &snap.Ausentes); err != nil {
		return TodaySnapshot{}, err
	}
	snap.Fecha = today
	return snap, nil
}

// StudentStatRows returns raw per-class counts for a student.
func (r *Repository) StudentStatRows(ctx context.Context, studentID int64) ([]StatRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.id,
			c.nombre,
			COUNT(*) AS total_clases,
			SUM(CASE WHEN a.estado = 'Presente' THEN 1 ELSE 0 END) AS presentes,
			SUM(CASE WHEN a.estado = 'Ausente' THEN 1 ELSE 0 END) AS ausentes
		FROM asistencias a
		JOIN clases c ON a.clase_id = c.id
		WHERE a.alumno_id = $1
		GROUP BY c.id, c.nombre
		ORDER BY c.nombre
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []StatRow{}
	for rows.Next() {
		var sr StatRow
		if err := rows.Scan(&sr.ClaseID, &sr.ClaseNombre, &sr.Total, &sr.Presentes, &sr.Ausentes); err != nil {
			return nil, err
		}
		res = append(res, sr)
	}
	return res, rows.Err()
}

// StudentClasses lists the classes a student is enrolled in with the
// owning teacher's name and the most recent attendance date.
func (r *Repository) StudentClasses(ctx context.Context, studentID int64) ([]StudentClass, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT
			c.id,
			c.nombre,
			p.nombre AS profesor,
			(SELECT MAX(a.fecha)
			 FROM asistencias a
			 WHERE a.alumno_id = $1
			 AND a.clase_id = c.id) AS ultima_asistencia
		FROM clases c
		JOIN inscripciones i ON c.id = i.clase_id
		JOIN usuarios p ON c.profesor_id = p.id
		WHERE i.alumno_id = $1
		ORDER BY c.nombre
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []StudentClass{}
	for rows.Next() {
		var sc StudentClass
		var last sql.NullTime
		if err := rows.Scan(&sc.ID, &sc.Nombre, &sc.Profesor, &last); err != nil {
			return nil, err
		}
		sc.UltimaAsistencia = formatNullDate(last)
		res = append(res, sc)
	}
	return res, rows.Err()
}

// StudentHistory returns the full (fecha, estado) history, newest first.
func (r *Repository) StudentHistory(ctx context.Context, studentID, classID int64) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fecha, estado
		FROM asistencias
		WHERE alumno_id = $1
		AND clase_id = $2
		ORDER BY fecha DESC
	`, studentID, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []HistoryEntry{}
	for rows.Next() {
		var he HistoryEntry
		var fecha time.Time
		if err := rows.Scan(&fecha, &he.Estado); err != nil {
			return nil, err
		}
		he.Fecha = fecha.Format(dateLayout)
		res = append(res, he)
	}
	return res, rows.Err()
}

func formatNullDate(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(dateLayout)
	return &s
}
