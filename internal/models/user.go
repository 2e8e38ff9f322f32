package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"
	"strings"
)

type User struct {
	Model
	Email       string `gorm:"not null;uniqueIndex;size:254" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	FirstName   string `gorm:"size:150" json:"firstName"`
	LastName    string `gorm:"size:150" json:"lastName"`
	IsSuperuser bool   `gorm:"not null;default:false" json:"isSuperuser"`
}

// Hash returns the bcrypt hash of password.
func Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// VerifyPassword compares a bcrypt hashedPassword with its possible plaintext equivalent.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Prepare normalizes user input before validation; emails are compared lower-cased.
func (u *User) Prepare() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
}

// Validate checks the login credentials carried by u.
func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&u.Password, validation.Required),
	)
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
