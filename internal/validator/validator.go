package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidPassword      = errors.New("password must be at least 8 characters")
	ErrInvalidNickname      = errors.New("nickname must be 1 to 50 characters")
	ErrInvalidName          = errors.New("name must be 1 to 50 characters")
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrInvalidAccountNumber = errors.New("account number must be up to 20 digits or hyphens")
	ErrInvalidHistory       = errors.New("account factor history must be at most 255 characters")
)

var (
	emailRegex         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex         = regexp.MustCompile(`^\+?[0-9][0-9 \-]{0,19}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9][0-9\-]{0,19}$`)
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateNickname(nickname string) error {
	if !lengthBetween(nickname, 1, 50) {
		return ErrInvalidNickname
	}
	return nil
}

func ValidateName(name string) error {
	if !lengthBetween(name, 1, 50) {
		return ErrInvalidName
	}
	return nil
}

func ValidatePhone(phone string) error {
	if len(phone) > 20 || !phoneRegex.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

func ValidateAccountNumber(number string) error {
	if !accountNumberRegex.MatchString(number) {
		return ErrInvalidAccountNumber
	}
	return nil
}

func ValidateHistory(history string) error {
	if utf8.RuneCountInString(history) > 255 {
		return ErrInvalidHistory
	}
	return nil
}

func lengthBetween(value string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	return n >= min && n <= max
}
