package handler

import (
	"regexp"
	"strings"
	"unicode"

	"task-tracker/internal/model"
)

var (
	nameRegexp  = regexp.MustCompile(`^[A-Za-z]+$`)
	emailRegexp = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

func validateRegister(req model.RegisterRequest) map[string]string {
	errs := map[string]string{}

	switch {
	case strings.TrimSpace(req.FirstName) == "":
		errs["firstName"] = "First name is required"
	case !nameRegexp.MatchString(req.FirstName):
		errs["firstName"] = "First name must contain only letters"
	}

	switch {
	case strings.TrimSpace(req.LastName) == "":
		errs["lastName"] = "Last name is required"
	case !nameRegexp.MatchString(req.LastName):
		errs["lastName"] = "Last name must contain only letters"
	}

	switch {
	case strings.TrimSpace(req.Email) == "":
		errs["email"] = "Email is required"
	case !emailRegexp.MatchString(req.Email):
		errs["email"] = "Invalid email format. Email must contain a valid domain like .com or .net"
	}

	switch {
	case req.Password == "":
		errs["password"] = "Password is required"
	case len(req.Password) < 6:
		errs["password"] = "Password must be at least 6 characters"
	case !strongPassword(req.Password):
		errs["password"] = "Password must contain at least one letter, one number, and one special character"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateAuthentication(req model.AuthenticationRequest) map[string]string {
	errs := map[string]string{}

	switch {
	case strings.TrimSpace(req.Email) == "":
		errs["email"] = "Email is required"
	case !emailRegexp.MatchString(req.Email):
		errs["email"] = "Invalid email format"
	}

	if req.Password == "" {
		errs["password"] = "Password is required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateTaskFields(title string, priority string) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(title) == "" {
		errs["title"] = "Title is required"
	}

	switch {
	case strings.TrimSpace(priority) == "":
		errs["priority"] = "Priority is required"
	case !model.ValidPriority(priority):
		errs["priority"] = "Priority must be one of LOW, MEDIUM, HIGH"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func strongPassword(password string) bool {
	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
