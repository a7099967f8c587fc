package contact

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims the text fields of in.
func Normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Company = strings.TrimSpace(in.Company)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

// Validate checks the fields a contact cannot be saved without.
func Validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	return nil
}
