package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"asistencia/internal/attendance"
	"asistencia/internal/identity"
	"asistencia/internal/schedule"
)

type fakeStore struct {
	enrolled  bool
	owned     bool
	duplicate bool
}

func (f *fakeStore) ClassOwnedBy(ctx context.Context, classID, teacherID int64) (bool, error) {
	return f.owned, nil
}

func (f *fakeStore) Enrolled(ctx context.Context, studentID, classID int64) (bool, error) {
	return f.enrolled, nil
}

func (f *fakeStore) InsertIfAbsent(ctx context.Context, rec attendance.DayRecord) (bool, error) {
	return !f.duplicate, nil
}

func (f *fakeStore) Upsert(ctx context.Context, rec attendance.DayRecord) error { return nil }

func (f *fakeStore) TeacherClasses(ctx context.Context, teacherID int64, today string) ([]attendance.ClassSummary, error) {
	return []attendance.ClassSummary{}, nil
}

func (f *fakeStore) DailyRollups(ctx context.Context, classID int64) ([]attendance.DailyRollup, error) {
	return []attendance.DailyRollup{}, nil
}

func (f *fakeStore) Roster(ctx context.Context, classID int64) ([]attendance.RosterEntry, error) {
	return []attendance.RosterEntry{}, nil
}

func (f *fakeStore) EnrolledStudents(ctx context.Context, classID int64) ([]attendance.Student, error) {
	return []attendance.Student{}, nil
}

func (f *fakeStore) ClassRecords(ctx context.Context, classID int64) ([]attendance.StudentRecord, error) {
	return []attendance.StudentRecord{}, nil
}

func (f *fakeStore) TodaySnapshot(ctx context.Context, classID int64, today string) (attendance.TodaySnapshot, error) {
	return attendance.TodaySnapshot{Fecha: today}, nil
}

func (f *fakeStore) StudentStatRows(ctx context.Context, studentID int64) ([]attendance.StatRow, error) {
	return []attendance.StatRow{}, nil
}

func (f *fakeStore) StudentClasses(ctx context.Context, studentID int64) ([]attendance.StudentClass, error) {
	return []attendance.StudentClass{}, nil
}

func (f *fakeStore) StudentHistory(ctx context.Context, studentID, classID int64) ([]attendance.HistoryEntry, error) {
	return []attendance.HistoryEntry{}, nil
}

type fakeDirectory struct {
	user *identity.User
}

func (f *fakeDirectory) UserByEmail(ctx context.Context, email string) (*identity.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, nil
}

func (f *fakeDirectory) UpdatePassword(ctx context.Context, email, newPassword string) error {
	return nil
}

type fakeCatalog struct {
	exists bool
}

func (f *fakeCatalog) ClassExists(ctx context.Context, classID int64) (bool, error) {
	return f.exists, nil
}

func (f *fakeCatalog) Slots(ctx context.Context, classID int64) ([]schedule.Slot, error) {
	return []schedule.Slot{}, nil
}

func newTestRouter(store *fakeStore, dir *fakeDirectory, cat *fakeCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Identity:   identity.NewService(dir),
		Attendance: attendance.NewService(store, 5*time.Minute, nil),
		Schedule:   schedule.NewService(cat),
	}
	r := gin.New()
	h.Register(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &payload)
	return w, payload
}

func TestLoginEndpoint(t *testing.T) {
	dir := &fakeDirectory{user: &identity.User{ID: 9, Nombre: "Carla", Email: "carla@example.com", Password: "secreto", Tipo: "profesor"}}
	r := newTestRouter(&fakeStore{}, dir, &fakeCatalog{})

	t.Run("wrong password is a 401 distinguishable from unknown email", func(t *testing.T) {
		w, payload := doJSON(t, r, http.MethodPost, "/login", `{"email":"carla@example.com","password":"otra"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if payload["error"] != "Contraseña incorrecta" {
			t.Errorf("error = %v", payload["error"])
		}

		w2, payload2 := doJSON(t, r, http.MethodPost, "/login", `{"email":"nadie@example.com","password":"otra"}`)
		if w2.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w2.Code)
		}
		if payload2["error"] == payload["error"] {
			t.Error("unknown email and wrong password must carry different messages")
		}
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/login", `{"email":"carla@example.com"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("success returns the profile without the password", func(t *testing.T) {
		w, payload := doJSON(t, r, http.MethodPost, "/login", `{"email":"carla@example.com","password":"secreto"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if payload["nombre"] != "Carla" || payload["tipo"] != "profesor" {
			t.Errorf("payload = %v", payload)
		}
		if _, leaked := payload["password"]; leaked {
			t.Error("password must never be echoed")
		}
	})
}

func TestRegisterQREndpoint(t *testing.T) {
	t.Run("expired payload is a 400", func(t *testing.T) {
		r := newTestRouter(&fakeStore{enrolled: true}, &fakeDirectory{}, &fakeCatalog{})
		stale := time.Now().Add(-6 * time.Minute).UnixMilli()
		body := fmt.Sprintf(`{"alumnoId":7,"qrData":"{\"clase_id\":3,\"timestamp\":%d}"}`, stale)

		w, payload := doJSON(t, r, http.MethodPost, "/registrar-asistencia-qr", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if payload["error"] != "Código QR expirado" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("duplicate day is a 400 conflict", func(t *testing.T) {
		r := newTestRouter(&fakeStore{enrolled: true, duplicate: true}, &fakeDirectory{}, &fakeCatalog{})
		fresh := time.Now().UnixMilli()
		body := fmt.Sprintf(`{"alumnoId":7,"qrData":"{\"clase_id\":3,\"timestamp\":%d}"}`, fresh)

		w, payload := doJSON(t, r, http.MethodPost, "/registrar-asistencia-qr", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if payload["error"] != "Ya se registró asistencia hoy para esta clase" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("fresh payload registers", func(t *testing.T) {
		r := newTestRouter(&fakeStore{enrolled: true}, &fakeDirectory{}, &fakeCatalog{})
		fresh := time.Now().UnixMilli()
		body := fmt.Sprintf(`{"alumnoId":7,"qrData":"{\"clase_id\":3,\"timestamp\":%d}"}`, fresh)

		w, payload := doJSON(t, r, http.MethodPost, "/registrar-asistencia-qr", body)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %v", w.Code, payload)
		}
		if payload["message"] != "Asistencia registrada correctamente" {
			t.Errorf("message = %v", payload["message"])
		}
	})
}

func TestTeacherOwnershipIsForbiddenNotNotFound(t *testing.T) {
	r := newTestRouter(&fakeStore{owned: false}, &fakeDirectory{}, &fakeCatalog{})

	w, payload := doJSON(t, r, http.MethodPost, "/profesor/1/clase/3/asistencia", `{"alumno_id":7,"estado":"Presente"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if payload["error"] != "No autorizado" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestScheduleEndpoint(t *testing.T) {
	t.Run("unknown class is a 404", func(t *testing.T) {
		r := newTestRouter(&fakeStore{}, &fakeDirectory{}, &fakeCatalog{exists: false})
		w, payload := doJSON(t, r, http.MethodGet, "/clases/42/horarios", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if payload["error"] != "Clase no encontrada" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("non-numeric id is a 400", func(t *testing.T) {
		r := newTestRouter(&fakeStore{}, &fakeDirectory{}, &fakeCatalog{exists: true})
		w, _ := doJSON(t, r, http.MethodGet, "/clases/abc/horarios", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestListEndpointsReturnEmptyArrays(t *testing.T) {
	r := newTestRouter(&fakeStore{owned: true}, &fakeDirectory{}, &fakeCatalog{exists: true})

	for _, path := range []string{
		"/profesor/1/clases",
		"/profesor/1/clase/3/resumen",
		"/profesor/1/asistencia/3",
		"/clases/3/alumnos",
		"/clases/3/horarios",
		"/alumno/7/clases",
		"/alumno/7/estadisticas",
		"/asistencia/7/3",
	} {
		w, _ := doJSON(t, r, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, w.Code)
			continue
		}
		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Errorf("%s: body = %s, want []", path, body)
		}
	}
}
