package schedule

import (
	"context"
	"sort"

	"asistencia/internal/apperr"
)

// ErrClassNotFound is returned when the class id does not exist.
var ErrClassNotFound = apperr.New(apperr.NotFound, "Clase no encontrada", "La clase especificada no existe")

// Slot is one weekly time slot, times formatted HH:MM at read time.
type Slot struct {
	DiaSemana  string `json:"dia_semana"`
	HoraInicio string `json:"hora_inicio"`
	HoraFin    string `json:"hora_fin"`
}

// weekdayRank fixes the display order Lunes through Domingo. Unknown
// day names sort last.
var weekdayRank = map[string]int{
	"Lunes":     1,
	"Martes":    2,
	"Miércoles": 3,
	"Jueves":    4,
	"Viernes":   5,
	"Sábado":    6,
	"Domingo":   7,
}

// Catalog is the persistence surface the service needs.
type Catalog interface {
	ClassExists(ctx context.Context, classID int64) (bool, error)
	Slots(ctx context.Context, classID int64) ([]Slot, error)
}

// Service looks up weekly schedules.
type Service struct {
	catalog Catalog
}

// NewService creates a service backed by a catalog.
func NewService(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

// WeeklySlots returns the class's slots ordered by weekday then start
// time. Fails with ErrClassNotFound for unknown classes.
func (s *Service) WeeklySlots(ctx context.Context, classID int64) ([]Slot, error) {
	exists, err := s.catalog.ClassExists(ctx, classID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	if !exists {
		return nil, ErrClassNotFound
	}
	slots, err := s.catalog.Slots(ctx, classID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	SortSlots(slots)
	return slots, nil
}

// SortSlots orders slots by the fixed weekday sequence, then start
// time ascending. HH:MM strings compare correctly byte-wise.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		ri, rj := rankOf(slots[i].DiaSemana), rankOf(slots[j].DiaSemana)
		if ri != rj {
			return ri < rj
		}
		return slots[i].HoraInicio < slots[j].HoraInicio
	})
}

func rankOf(day string) int {
	if r, ok := weekdayRank[day]; ok {
		return r
	}
	return len(weekdayRank) + 1
}
