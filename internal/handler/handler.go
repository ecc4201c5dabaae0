package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"asistencia/internal/apperr"
	"asistencia/internal/attendance"
	"asistencia/internal/audit"
	"asistencia/internal/identity"
	"asistencia/internal/metrics"
	"asistencia/internal/queue"
	"asistencia/internal/schedule"
)

// Handler wires the HTTP surface to the services.
type Handler struct {
	Identity   *identity.Service
	Attendance *attendance.Service
	Schedule   *schedule.Service
	Queue      queue.Queue
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/login", h.login)
	r.POST("/change-password", h.changePassword)

	r.GET("/profesor/:profesorId/clases", h.teacherClasses)
	r.GET("/profesor/:profesorId/clase/:claseId/resumen", h.classRollup)
	r.GET("/profesor/:profesorId/clase/:claseId/resumen-dia", h.todaySummary)
	r.POST("/profesor/:profesorId/clase/:claseId/resumen-dia", h.todaySummary)
	r.POST("/profesor/:profesorId/clase/:claseId/asistencia", h.recordByTeacher)
	r.GET("/profesor/:profesorId/clase/:claseId/qr", h.issueQR)
	r.GET("/profesor/:profesorId/asistencia/:claseId", h.rosterWithHistory)

	r.GET("/clases/:claseId/alumnos", h.roster)
	r.GET("/clases/:claseId/horarios", h.weeklySlots)

	r.GET("/alumno/:alumnoId/clases", h.studentClasses)
	r.GET("/alumno/:alumnoId/estadisticas", h.studentStats)
	r.GET("/asistencia/:alumnoId/:claseId", h.studentHistory)

	r.POST("/registrar-asistencia-qr", h.registerQR)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, identity.ErrMissingCredentials)
		return
	}
	profile, err := h.Identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.Logins.WithLabelValues("denied").Inc()
		respondErr(c, err)
		return
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) changePassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, identity.ErrMissingCredentials)
		return
	}
	if err := h.Identity.ChangePassword(c.Request.Context(), req.Email, req.OldPassword, req.NewPassword); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contraseña actualizada correctamente"})
}

func (h *Handler) teacherClasses(c *gin.Context) {
	teacherID, ok := pathID(c, "profesorId")
	if !ok {
		return
	}
	classes, err := h.Attendance.TeacherClasses(c.Request.Context(), teacherID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *Handler) classRollup(c *gin.Context) {
	teacherID, ok := pathID(c, "profesorId")
	if !ok {
		return
	}
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	rollup, err := h.Attendance.ClassRollup(c.Request.Context(), teacherID, classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rollup)
}

func (h *Handler) todaySummary(c *gin.Context) {
	teacherID, ok := pathID(c, "profesorId")
	if !ok {
		return
	}
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	snap, err := h.Attendance.TodaySummary(c.Request.Context(), teacherID, classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) recordByTeacher(c *gin.Context) {
	teacherID, ok := pathID(c, "profesorId")
	if !ok {
		return
	}
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	var req struct {
		AlumnoID *int64  `json:"alumno_id"`
		Estado   *string `json:"estado"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.AlumnoID == nil || req.Estado == nil {
		respondErr(c, apperr.New(apperr.Validation, "Datos incompletos", "Se requiere alumno_id y estado"))
		return
	}
	rec, err := h.Attendance.RecordByTeacher(c.Request.Context(), teacherID, classID, *req.AlumnoID, *req.Estado)
	if err != nil {
		metrics.Registrations.WithLabelValues("profesor", "rejected").Inc()
		respondErr(c, err)
		return
	}
	metrics.Registrations.WithLabelValues("profesor", "ok").Inc()
	h.publishAudit(c.Request.Context(), rec, "profesor")
	c.JSON(http.StatusOK, gin.H{"message": "Asistencia registrada correctamente"})
}

func (h *Handler) issueQR(c *gin.Context) {
	teacherID, ok := pathID(c, "profesorId")
	if !ok {
		return
	}
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	png, err := h.Attendance.IssueQR(c.Request.Context(), teacherID, classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) rosterWithHistory(c *gin.Context) {
	teacherID, ok := pathID(c, "profesorId")
	if !ok {
		return
	}
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	roster, err := h.Attendance.RosterWithHistory(c.Request.Context(), teacherID, classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

func (h *Handler) roster(c *gin.Context) {
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	roster, err := h.Attendance.Roster(c.Request.Context(), classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

func (h *Handler) weeklySlots(c *gin.Context) {
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	slots, err := h.Schedule.WeeklySlots(c.Request.Context(), classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (h *Handler) studentClasses(c *gin.Context) {
	studentID, ok := pathID(c, "alumnoId")
	if !ok {
		return
	}
	classes, err := h.Attendance.StudentClasses(c.Request.Context(), studentID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *Handler) studentStats(c *gin.Context) {
	studentID, ok := pathID(c, "alumnoId")
	if !ok {
		return
	}
	stats, err := h.Attendance.StudentStats(c.Request.Context(), studentID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) studentHistory(c *gin.Context) {
	studentID, ok := pathID(c, "alumnoId")
	if !ok {
		return
	}
	classID, ok := pathID(c, "claseId")
	if !ok {
		return
	}
	history, err := h.Attendance.StudentHistory(c.Request.Context(), studentID, classID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) registerQR(c *gin.Context) {
	var req struct {
		AlumnoID *int64 `json:"alumnoId"`
		QRData   string `json:"qrData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.AlumnoID == nil || req.QRData == "" {
		respondErr(c, apperr.New(apperr.Validation, "Datos incompletos", "Se requiere alumnoId y qrData"))
		return
	}
	rec, err := h.Attendance.RegisterQR(c.Request.Context(), *req.AlumnoID, req.QRData)
	if err != nil {
		metrics.Registrations.WithLabelValues("qr", "rejected").Inc()
		respondErr(c, err)
		return
	}
	metrics.Registrations.WithLabelValues("qr", "ok").Inc()
	h.publishAudit(c.Request.Context(), rec, "qr")
	c.JSON(http.StatusOK, gin.H{"message": "Asistencia registrada correctamente"})
}

// publishAudit enqueues the write for the audit worker. A queue
// failure never fails the request.
func (h *Handler) publishAudit(ctx context.Context, rec attendance.DayRecord, method string) {
	if h.Queue == nil {
		return
	}
	body, err := json.Marshal(audit.Event{
		AlumnoID: rec.AlumnoID,
		ClaseID:  rec.ClaseID,
		Fecha:    rec.Fecha,
		Estado:   rec.Estado,
		Metodo:   method,
	})
	if err != nil {
		return
	}
	if err := h.Queue.Publish(ctx, queue.Message{Type: "asistencia", Body: body}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondErr(c, apperr.New(apperr.Validation, "Parámetro inválido", "Se esperaba un id numérico en "+name))
		return 0, false
	}
	return id, true
}

// respondErr maps the closed error taxonomy to status codes in one
// place. Everything outside the taxonomy surfaces as a 500.
func respondErr(c *gin.Context, err error) {
	e := apperr.AsError(err)
	var status int
	switch e.Kind {
	case apperr.Validation, apperr.Conflict:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Unauthorized:
		status = http.StatusUnauthorized
	case apperr.Forbidden:
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": e.Label, "message": e.Message})
}
