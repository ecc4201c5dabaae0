package attendance

// Attendance statuses as stored. History payloads lowercase them at
// serialization time; the store always keeps the title-case form.
const (
	StatusPresent = "Presente"
	StatusAbsent  = "Ausente"
)

// DayRecord is one attendance row keyed by (alumno, clase, fecha).
type DayRecord struct {
	AlumnoID int64  `json:"alumno_id"`
	ClaseID  int64  `json:"clase_id"`
	Fecha    string `json:"fecha"`
	Estado   string `json:"estado"`
}

// HistoryEntry is one (date, status) pair of a student's history.
type HistoryEntry struct {
	Fecha  string `json:"fecha"`
	Estado string `json:"estado"`
}

// ClassSummary is a teacher-facing class listing row.
type ClassSummary struct {
	ID               int64   `json:"id"`
	Nombre           string  `json:"nombre"`
	TotalAlumnos     int     `json:"total_alumnos"`
	PresentesHoy     int     `json:"presentes_hoy"`
	UltimaAsistencia *string `json:"ultima_asistencia"`
}

// DailyRollup aggregates one day of a class. TotalAlumnos reflects
// current enrollment, independent of the rollup's date window.
type DailyRollup struct {
	Fecha        string `json:"fecha"`
	Presentes    int    `json:"presentes"`
	Ausentes     int    `json:"ausentes"`
	TotalAlumnos int    `json:"total_alumnos"`
}

// RosterEntry lists one enrolled student with their latest status.
type RosterEntry struct {
	ID               int64   `json:"id"`
	Nombre           string  `json:"nombre"`
	Email            string  `json:"email"`
	TotalAsistencias int     `json:"total_asistencias"`
	UltimoEstado     *string `json:"ultimo_estado"`
	UltimaFecha      *string `json:"ultima_fecha"`
}

// Student is an enrolled student reference.
type Student struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// StudentRecord is a class attendance row tagged with its student.
type StudentRecord struct {
	AlumnoID int64
	Fecha    string
	Estado   string
}

// RosterHistory is a roster entry with the full nested history.
type RosterHistory struct {
	AlumnoID         int64          `json:"alumno_id"`
	AlumnoNombre     string         `json:"alumno_nombre"`
	TotalAsistencias int            `json:"total_asistencias"`
	Asistencias      []HistoryEntry `json:"asistencias"`
}

// TodaySnapshot counts today's marks against current enrollment.
// Students without a record today are neither present nor absent.
type TodaySnapshot struct {
	TotalAlumnos int    `json:"total_alumnos"`
	Presentes    int    `json:"presentes"`
	Ausentes     int    `json:"ausentes"`
	Fecha        string `json:"fecha"`
}

// StatRow is the raw per-class count row for a student.
type StatRow struct {
	ClaseID     int64
	ClaseNombre string
	Total       int
	Presentes   int
	Ausentes    int
}

// StudentStats is a student's per-class statistics.
type StudentStats struct {
	ClaseID     int64   `json:"clase_id"`
	ClaseNombre string  `json:"clase_nombre"`
	TotalClases int     `json:"total_clases"`
	Presentes   int     `json:"presentes"`
	Ausentes    int     `json:"ausentes"`
	Porcentaje  float64 `json:"porcentaje_asistencia"`
}

// StudentClass is one class a student is enrolled in.
type StudentClass struct {
	ID               int64   `json:"id"`
	Nombre           string  `json:"nombre"`
	Profesor         string  `json:"profesor"`
	UltimaAsistencia *string `json:"ultimaAsistencia"`
}
