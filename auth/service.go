package auth

import (
	"errors"

	"air_quality_api/users"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the email or password is wrong.
// Both cases share one error so login responses do not reveal which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service authenticates users and issues access tokens.
type Service struct {
	users *users.Service
	jwt   *JWTManager
}

// NewService creates an auth Service.
func NewService(usersService *users.Service, jwtManager *JWTManager) *Service {
	return &Service{users: usersService, jwt: jwtManager}
}

// Login verifies the credentials and returns a signed access token.
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.jwt.GenerateToken(user.ID, user.Role)
}
