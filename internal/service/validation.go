package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldMessages maps "Field.tag" to the message shown for that failure
var fieldMessages = map[string]string{
	"Name.required":            "Please enter your name",
	"Email.required":           "Please enter a valid email",
	"Email.email":              "Please provide a valid email",
	"Password.required":        "Please enter your password",
	"Password.min":             "Password must be at least 8 characters long",
	"PasswordConfirm.required": "Please confirm your password",
	"PasswordConfirm.eqfield":  "Passwords do not match",
}

// validationMessage joins every field failure into one client-facing message
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid input data."
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		msgs = append(msgs, msg)
	}
	return "Invalid input data. " + strings.Join(msgs, ". ")
}
