package users

import (
	"errors"
	"fmt"
	"net/mail"

	"air_quality_api/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service errors mapped to HTTP statuses by the API layer.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already exists")
)

// InvalidInputError reports a create or update request that failed
// validation.
type InvalidInputError struct {
	msg string
}

func (e *InvalidInputError) Error() string {
	return e.msg
}

func invalidInputf(format string, v ...interface{}) error {
	return &InvalidInputError{msg: fmt.Sprintf(format, v...)}
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// Service manages user accounts.
type Service struct {
	db         *gorm.DB
	bcryptCost int
}

// NewService creates a user Service. bcryptCost is the hashing cost used
// for new passwords.
func NewService(db *gorm.DB, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{db: db, bcryptCost: bcryptCost}
}

// CreateParams are the inputs for Create.
type CreateParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateParams are the inputs for Update. Nil fields are left unchanged.
type UpdateParams struct {
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Create validates the params, hashes the password, and stores a new
// user. A duplicate email yields ErrEmailTaken.
func (s *Service) Create(params CreateParams) (*models.User, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, invalidInputf("Invalid email address")
	}
	if len(params.Password) < 6 || len(params.Password) > 20 {
		return nil, invalidInputf("Password should be between 6 and 20 characters")
	}
	if !models.IsValidRole(params.Role) {
		return nil, invalidInputf("Invalid role %s, must be %s or %s", params.Role, models.RoleAdmin, models.RoleUser)
	}

	var existing models.User
	err := s.db.Where("email = ?", params.Email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:    params.Email,
		Password: string(hash),
		Role:     params.Role,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// Update changes a user's email and/or role.
func (s *Service) Update(id string, params UpdateParams) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if params.Email != nil {
		if _, err := mail.ParseAddress(*params.Email); err != nil {
			return nil, invalidInputf("Invalid email address")
		}

		var existing models.User
		err := s.db.Where("email = ?", *params.Email).First(&existing).Error
		if err == nil && existing.ID != id {
			return nil, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}

		user.Email = *params.Email
	}

	if params.Role != nil {
		if !models.IsValidRole(*params.Role) {
			return nil, invalidInputf("Invalid role %s, must be %s or %s", *params.Role, models.RoleAdmin, models.RoleUser)
		}
		user.Role = *params.Role
	}

	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &user, nil
}

// Delete removes a user by ID.
func (s *Service) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all users.
func (s *Service) List() ([]models.User, error) {
	var all []models.User
	if err := s.db.Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return all, nil
}

// FindByEmail returns the user with the given email.
func (s *Service) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}
