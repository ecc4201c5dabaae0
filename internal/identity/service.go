package identity

import (
	"context"

	"asistencia/internal/apperr"
)

// Login failures are deliberately distinguishable: the original system
// tells an unknown email apart from a wrong password, and callers
// depend on the two messages.
var (
	ErrMissingCredentials = apperr.New(apperr.Validation, "Datos incompletos", "Email y contraseña son requeridos")
	ErrUserNotFound       = apperr.New(apperr.Unauthorized, "Usuario no encontrado", "El email proporcionado no está registrado")
	ErrWrongPassword      = apperr.New(apperr.Unauthorized, "Contraseña incorrecta", "La contraseña proporcionada es incorrecta")
	ErrOldPasswordWrong   = apperr.New(apperr.Validation, "Contraseña actual incorrecta", "")
)

// Profile is the public view of a user; the password is never echoed.
type Profile struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Tipo   string `json:"tipo"`
}

// Directory is the persistence surface the service needs.
type Directory interface {
	UserByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, email, newPassword string) error
}

// Service validates credentials against stored users.
type Service struct {
	dir Directory
}

// NewService creates a service backed by a user directory.
func NewService(dir Directory) *Service {
	return &Service{dir: dir}
}

// Login checks the credential pair with an exact string match on the
// stored password.
func (s *Service) Login(ctx context.Context, email, password string) (Profile, error) {
	if email == "" || password == "" {
		return Profile{}, ErrMissingCredentials
	}
	user, err := s.dir.UserByEmail(ctx, email)
	if err != nil {
		return Profile{}, apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	if user == nil {
		return Profile{}, ErrUserNotFound
	}
	if user.Password != password {
		return Profile{}, ErrWrongPassword
	}
	return Profile{ID: user.ID, Nombre: user.Nombre, Email: user.Email, Tipo: user.Tipo}, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if email == "" || oldPassword == "" || newPassword == "" {
		return ErrMissingCredentials
	}
	user, err := s.dir.UserByEmail(ctx, email)
	if err != nil {
		return apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	if user == nil || user.Password != oldPassword {
		return ErrOldPasswordWrong
	}
	if err := s.dir.UpdatePassword(ctx, email, newPassword); err != nil {
		return apperr.Wrap(apperr.Store, "Error del servidor", err)
	}
	return nil
}
