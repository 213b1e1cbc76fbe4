package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is an account of the dev backend together with the business card it shares
type User struct {
	ID           int64     `json:"userId"`               // Numeric id handed to clients
	LoginID      string    `json:"loginId"`              // Unique login name
	PasswordHash string    `json:"-"`                    // Hashed version of the user's password - never serialize
	Name         string    `json:"name"`                 // Display name
	Company      string    `json:"company,omitempty"`    // Card: company
	Department   string    `json:"department,omitempty"` // Card: department
	Position     string    `json:"position,omitempty"`   // Card: position
	Email        string    `json:"email,omitempty"`      // Card: email
	Phone        string    `json:"phone,omitempty"`      // Card: phone number
	DateJoined   time.Time `json:"dateJoined,omitempty"`
	LastLogin    time.Time `json:"lastLogin,omitempty"`

	// Contacts are the ids of users this user exchanged cards with
	Contacts []int64 `json:"contacts,omitempty"`
}

// HasContact reports whether the user exchanged cards with id
func (u *User) HasContact(id int64) bool {
	for _, c := range u.Contacts {
		if c == id {
			return true
		}
	}
	return false
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword compares password with the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
