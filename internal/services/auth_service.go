package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"roofradar/internal/domain"
	"roofradar/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// dummyHash is compared when no account matches, so a failed lookup costs
// the same as a wrong password.
var dummyHash = []byte("$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW")

// AuthService signs the operator into the admin panel by binding their
// account to the sid cookie. The public site has no accounts at all.
type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Logout unbinds the session; the cookie itself is cleared by the handler.
func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
