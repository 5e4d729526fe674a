package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is an account held by the development backend.
type User struct {
	ID           string    `json:"id,omitempty"`
	Username     string    `json:"username,omitempty"` // Login identifier
	PasswordHash string    `json:"-"`                  // never serialize
	FullName     string    `json:"full_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         Role      `json:"role,omitempty"`
	NIM          string    `json:"nim,omitempty"` // Student number
	NIP          string    `json:"nip,omitempty"` // Staff number
	Blocked      bool      `json:"blocked,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`
}

// Payload is the user object sent to clients on login and refresh.
func (u *User) Payload() map[string]any {
	payload := map[string]any{
		"id":        u.ID,
		"username":  u.Username,
		"full_name": u.FullName,
		"role":      string(u.Role),
	}
	if u.Email != "" {
		payload["email"] = u.Email
	}
	if u.NIM != "" {
		payload["nim"] = u.NIM
	}
	if u.NIP != "" {
		payload["nip"] = u.NIP
	}
	return payload
}

// Identity returns the normalized identity of the user.
func (u *User) Identity() Identity {
	return NormalizeIdentity(u.Payload())
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

// CheckPassword checks a password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
