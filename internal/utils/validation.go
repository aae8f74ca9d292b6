package contextutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidEmail checks if an email address is valid using go-playground/validator
func IsValidEmail(email string) bool {
	return validate.Var(email, "email") == nil
}

// IsValidUsername accepts 3-50 printable characters without whitespace or '@',
// so a username can never be confused with an email at login.
func IsValidUsername(username string) bool {
	return validate.Var(username, "min=3,max=50,printascii,excludesall= @\t") == nil
}
