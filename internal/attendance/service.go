package attendance

import (
	"context"
	"math"
	"strings"
	"time"

	"asistencia/internal/apperr"
)

// Classified failures of the recorder. Labels and messages match the
// API's Spanish payloads.
var (
	ErrQRInvalid         = apperr.New(apperr.Validation, "Código QR inválido", "El código escaneado no se pudo interpretar")
	ErrQRExpired         = apperr.New(apperr.Validation, "Código QR expirado", "")
	ErrNotEnrolled       = apperr.New(apperr.Validation, "Alumno no inscrito en esta clase", "")
	ErrAlreadyRegistered = apperr.New(apperr.Conflict, "Ya se registró asistencia hoy para esta clase", "")
	ErrClassNotOwned     = apperr.New(apperr.Forbidden, "No autorizado", "Esta clase no pertenece al profesor")
	ErrBadStatus         = apperr.New(apperr.Validation, "Estado inválido", "El estado debe ser Presente o Ausente")
)

// Store is the persistence surface the service needs.
type Store interface {
	ClassOwnedBy(ctx context.Context, classID, teacherID int64) (bool, error)
	Enrolled(ctx context.Context, studentID, classID int64) (bool, error)
	InsertIfAbsent(ctx context.Context, rec DayRecord) (bool, error)
	Upsert(ctx context.Context, rec DayRecord) error

	TeacherClasses(ctx context.Context, teacherID int64, today string) ([]ClassSummary, error)
	DailyRollups(ctx context.Context, classID int64) ([]DailyRollup, error)
	Roster(ctx context.Context, classID int64) ([]RosterEntry, error)
	EnrolledStudents(ctx context.Context, classID int64) ([]Student, error)
	ClassRecords(ctx context.Context, classID int64) ([]StudentRecord, error)
	TodaySnapshot(ctx context.Context, classID int64, today string) (TodaySnapshot, error)
	StudentStatRows(ctx context.Context, studentID int64) ([]StatRow, error)
	StudentClasses(ctx context.Context, studentID int64) ([]StudentClass, error)
	StudentHistory(ctx context.Context, studentID, classID int64) ([]HistoryEntry, error)
}

// Service validates and records attendance and computes aggregates.
type Service struct {
	store Store
	qrTTL time.Duration
	now   func() time.Time
}

// NewService creates a service backed by a store. now may be nil, in
// which case wall-clock time is used.
func NewService(store Store, qrTTL time.Duration, now func() time.Time) *Service {
	if qrTTL <= 0 {
		qrTTL = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, qrTTL: qrTTL, now: now}
}

func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

// RegisterQR handles student self-registration from a scanned payload.
// Checks run in order and short-circuit: freshness, enrollment,
// one-record-per-day. On success exactly one Presente row is written.
func (s *Service) RegisterQR(ctx context.Context, studentID int64, qrData string) (DayRecord, error) {
	payload, err := DecodeQR(qrData)
	if err != nil {
		return DayRecord{}, ErrQRInvalid
	}

	// The boundary is inclusive: a payload aged exactly qrTTL is valid.
	if s.now().UnixMilli()-payload.Timestamp > s.qrTTL.Milliseconds() {
		return DayRecord{}, ErrQRExpired
	}

	enrolled, err := s.store.Enrolled(ctx, studentID, payload.ClaseID)
	if err != nil {
		return DayRecord{}, apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	if !enrolled {
		return DayRecord{}, ErrNotEnrolled
	}

	rec := DayRecord{
		AlumnoID: studentID,
		ClaseID:  payload.ClaseID,
		Fecha:    s.today(),
		Estado:   StatusPresent,
	}
	inserted, err := s.store.InsertIfAbsent(ctx, rec)
	if err != nil {
		return DayRecord{}, apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	if !inserted {
		return DayRecord{}, ErrAlreadyRegistered
	}
	return rec, nil
}

// RecordByTeacher upserts today's status for a student in a class the
// teacher owns. No enrollment check: teachers may mark any student in
// their own class, matching the self-service path's asymmetry.
// Re-invoking with the same status leaves a single identical row.
func (s *Service) RecordByTeacher(ctx context.Context, teacherID, classID, studentID int64, status string) (DayRecord, error) {
	if status != StatusPresent && status != StatusAbsent {
		return DayRecord{}, ErrBadStatus
	}
	if err := s.requireOwnership(ctx, classID, teacherID); err != nil {
		return DayRecord{}, err
	}

	rec := DayRecord{
		AlumnoID: studentID,
		ClaseID:  classID,
		Fecha:    s.today(),
		Estado:   status,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return DayRecord{}, apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	return rec, nil
}

// IssueQR builds a fresh self-registration payload for a class the
// teacher owns and renders it as a PNG.
func (s *Service) IssueQR(ctx context.Context, teacherID, classID int64) ([]byte, error) {
	if err := s.requireOwnership(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	return QRImage(QRPayload{ClaseID: classID, Timestamp: s.now().UnixMilli()})
}

// TeacherClasses lists a teacher's classes alphabetically.
func (s *Service) TeacherClasses(ctx context.Context, teacherID int64) ([]ClassSummary, error) {
	return s.store.TeacherClasses(ctx, teacherID, s.today())
}

// ClassRollup returns the last seven recorded days of a class the
// teacher owns, newest first.
func (s *Service) ClassRollup(ctx context.Context, teacherID, classID int64) ([]DailyRollup, error) {
	if err := s.requireOwnership(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	return s.store.DailyRollups(ctx, classID)
}

// Roster lists enrolled students with their latest status, lowercased
// for the history payload.
func (s *Service) Roster(ctx context.Context, classID int64) ([]RosterEntry, error) {
	entries, err := s.store.Roster(ctx, classID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].UltimoEstado != nil {
			lowered := strings.ToLower(*entries[i].UltimoEstado)
			entries[i].UltimoEstado = &lowered
		}
	}
	return entries, nil
}

// RosterWithHistory returns every enrolled student with the full
// date-descending history. Students with no records appear with an
// empty list.
func (s *Service) RosterWithHistory(ctx context.Context, teacherID, classID int64) ([]RosterHistory, error) {
	if err := s.requireOwnership(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	students, err := s.store.EnrolledStudents(ctx, classID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ClassRecords(ctx, classID)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[int64][]HistoryEntry, len(students))
	for _, rec := range records {
		byStudent[rec.AlumnoID] = append(byStudent[rec.AlumnoID], HistoryEntry{
			Fecha:  rec.Fecha,
			Estado: strings.ToLower(rec.Estado),
		})
	}

	res := make([]RosterHistory, 0, len(students))
	for _, st := range students {
		history := byStudent[st.ID]
		if history == nil {
			history = []HistoryEntry{}
		}
		res = append(res, RosterHistory{
			AlumnoID:         st.ID,
			AlumnoNombre:     st.Nombre,
			TotalAsistencias: len(history),
			Asistencias:      history,
		})
	}
	return res, nil
}

// TodaySummary counts today's marks for a class the teacher owns.
func (s *Service) TodaySummary(ctx context.Context, teacherID, classID int64) (TodaySnapshot, error) {
	if err := s.requireOwnership(ctx, classID, teacherID); err != nil {
		return TodaySnapshot{}, err
	}
	return s.store.TodaySnapshot(ctx, classID, s.today())
}

// StudentStats computes per-class statistics for a student. The
// percentage is presentes/total rounded to two decimals; zero when the
// student has no records.
func (s *Service) StudentStats(ctx context.Context, studentID int64) ([]StudentStats, error) {
	rows, err := s.store.StudentStatRows(ctx, studentID)
	if err != nil {
		return nil, err
	}
	res := make([]StudentStats, 0, len(rows))
	for _, row := range rows {
		var pct float64
		if row.Total > 0 {
			pct = math.Round(float64(row.Presentes)/float64(row.Total)*100*100) / 100
		}
		res = append(res, StudentStats{
			ClaseID:     row.ClaseID,
			ClaseNombre: row.ClaseNombre,
			TotalClases: row.Total,
			Presentes:   row.Presentes,
			Ausentes:    row.Ausentes,
			Porcentaje:  pct,
		})
	}
	return res, nil
}

// StudentClasses lists the student's enrolled classes alphabetically.
func (s *Service) StudentClasses(ctx context.Context, studentID int64) ([]StudentClass, error) {
	return s.store.StudentClasses(ctx, studentID)
}

// StudentHistory returns the raw history, estado as stored.
func (s *Service) StudentHistory(ctx context.Context, studentID, classID int64) ([]HistoryEntry, error) {
	return s.store.StudentHistory(ctx, studentID, classID)
}

func (s *Service) requireOwnership(ctx context.Context, classID, teacherID int64) error {
	owned, err := s.store.ClassOwnedBy(ctx, classID, teacherID)
	if err != nil {
		return apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	if !owned {
		return ErrClassNotOwned
	}
	return nil
}
