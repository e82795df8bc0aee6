// Package users holds the operator accounts the dashboard authenticates as:
// platform admins, creators, and agencies that manage a roster of creators.
package users

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Roles understood by the authorization checks.
const (
	RoleAdmin   = "admin"
	RoleCreator = "creator"
	RoleAgency  = "agency"
)

type User struct {
	ID                  uint   `gorm:"primaryKey"`
	Email               string `gorm:"uniqueIndex"`
	Username            string `gorm:"uniqueIndex"`
	Role                string `gorm:"index;not null;default:'creator'"`
	AgencyID            *uint  `gorm:"index"` // managing agency, creators only
	EncryptedPassword   string
	ResetPasswordToken  sql.NullString
	ResetPasswordSentAt sql.NullTime
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user is a platform administrator.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsAgency reports whether the user is an agency operator.
func (u *User) IsAgency() bool { return u.Role == RoleAgency }

// IsCreator reports whether the user is a creator account.
func (u *User) IsCreator() bool { return u.Role == RoleCreator }

// ErrUserExists is returned when attempting to create a user that already exists.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = gorm.ErrRecordNotFound

// FindByEmail retrieves a user by email.
func FindByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func FindByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ManagedCreators returns the creator accounts in an operator's scope:
// every creator for admins, the managed roster for agencies.
func ManagedCreators(db *gorm.DB, operator *User) ([]User, error) {
	query := db.Where("role = ?", RoleCreator)
	if operator.IsAgency() {
		query = query.Where("agency_id = ?", operator.ID)
	} else if !operator.IsAdmin() {
		return nil, fmt.Errorf("operator %d has no managed creators", operator.ID)
	}

	var creators []User
	if err := query.Order("id").Find(&creators).Error; err != nil {
		return nil, fmt.Errorf("failed to load managed creators: %w", err)
	}
	return creators, nil
}

// CreateUser creates a new account with the supplied credentials and role.
// It returns ErrUserExists if the email is already taken.
func CreateUser(dbConn *gorm.DB, email, username, password, role string) (*User, error) {
	if _, err := FindByEmail(dbConn, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return nil, err
	}

	newUser := User{
		Email:             email,
		Username:          username,
		Role:              role,
		EncryptedPassword: string(hashedPassword),
	}

	logger := slog.Default()
	err = sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Create(&newUser).Error
	})
	if err != nil {
		return nil, err
	}
	return &newUser, nil
}

// CreateAdminUser creates a new admin user with the supplied credentials.
func CreateAdminUser(dbConn *gorm.DB, email, password string) error {
	_, err := CreateUser(dbConn, email, email, password, RoleAdmin)
	return err
}

// ChangePassword updates a user's password given their email.
func ChangePassword(dbConn *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	user, err := FindByEmail(dbConn, email)
	if err != nil {
		return err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Model(user).Update("encrypted_password", string(hashedPassword)).Error
	})
}
