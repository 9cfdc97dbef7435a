// Package validator holds the pure form validators. Each function maps raw
// input to a list of human-readable error messages and performs no I/O.
package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// User form modes. Anything unexpected is treated as register.
const (
	ModeRegister = "register"
	ModeEdit     = "edit"
)

var (
	emailPattern = regexp.MustCompile(`^[\w\-.]+@[\w\-.]+\.[a-zA-Z]+$`)
	passPattern  = regexp.MustCompile(`^[a-zA-Z0-9]{8,}$`)
)

// UserForm carries the registration / profile-edit fields.
type UserForm struct {
	Name  string
	Email string
	Pass  string
	Pass2 string
	Prof  string
}

// ValidateUser checks the registration (mode=register) or profile-edit
// (mode=edit) form. In edit mode an empty password means "do not change".
// imageTooLarge reports that an uploaded file exceeded the configured size
// limit; file-type checks happen at upload time, not here.
func ValidateUser(form UserForm, mode string, imageTooLarge bool) []string {
	var errors []string

	if mode != ModeEdit {
		mode = ModeRegister
	}

	if strings.TrimSpace(form.Name) == "" {
		errors = append(errors, "Please enter your name.")
	} else if utf8.RuneCountInString(form.Name) > 20 {
		errors = append(errors, "Please enter your name within 20 characters.")
	}

	if strings.TrimSpace(form.Email) == "" {
		errors = append(errors, "Please enter your email address.")
	} else if !emailPattern.MatchString(form.Email) {
		errors = append(errors, "Please enter a valid email address.")
	}

	if mode == ModeRegister && form.Pass == "" {
		errors = append(errors, "Please enter a password.")
	}

	if form.Pass != "" {
		if len(form.Pass) > 64 {
			errors = append(errors, "Please enter a password within 64 characters.")
		}
		if !passPattern.MatchString(form.Pass) {
			errors = append(errors, "Password must be at least 8 alphanumeric characters.")
		}
		if form.Pass != form.Pass2 {
			errors = append(errors, "Password and confirmation password do not match.")
		}
	}

	if mode == ModeEdit && form.Pass == "" && form.Pass2 != "" {
		errors = append(errors, "A confirmation password was entered without a password.")
	}

	if imageTooLarge {
		errors = append(errors, "The image file is too large.")
	}

	return errors
}
