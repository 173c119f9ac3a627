package form

import "strings"

// LoginInput is the submitted login form.
type LoginInput struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"username.required": "Please enter both username and password",
	"password.required": "Please enter both username and password",
}

// Normalize trims the username.  Passwords are taken verbatim.
func (in *LoginInput) Normalize() { in.Username = strings.TrimSpace(in.Username) }

// Validate reports a single combined message when either field is blank.
func (in LoginInput) Validate() Errors {
	var errs Errors
	check(in, loginMessages, &errs)
	if len(errs) > 1 {
		errs = errs[:1]
	}
	return errs
}

// RegisterInput is the submitted registration form.
type RegisterInput struct {
	Username        string `form:"username" validate:"required,min=3,max=50,username"`
	Password        string `form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

var registerMessages = map[string]string{
	"username.required":         "Username is required",
	"username.min":              "Username must be at least 3 characters",
	"username.max":              "Username must be at most 50 characters",
	"username.username":         "Username may only contain letters, numbers and underscores",
	"password.required":         "Password is required",
	"password.min":              "Password must be at least 6 characters",
	"password.max":              "Password must be at most 72 characters",
	"confirm_password.required": "Please confirm the password",
	"confirm_password.eqfield":  "Passwords do not match",
}

func (in *RegisterInput) Normalize() { in.Username = strings.TrimSpace(in.Username) }

// Validate collects every registration rule violation.
func (in RegisterInput) Validate() Errors {
	var errs Errors
	check(in, registerMessages, &errs)
	return errs
}

// ChangePasswordInput is the submitted change-password form.
type ChangePasswordInput struct {
	CurrentPassword string `form:"current_password" validate:"required"`
	NewPassword     string `form:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=NewPassword"`
}

var changePasswordMessages = map[string]string{
	"current_password.required": "Current password is required",
	"new_password.required":     "New password is required",
	"new_password.min":          "New password must be at least 6 characters",
	"new_password.max":          "New password must be at most 72 characters",
	"confirm_password.required": "Please confirm the new password",
	"confirm_password.eqfield":  "New passwords do not match",
}

func (in ChangePasswordInput) Validate() Errors {
	var errs Errors
	check(in, changePasswordMessages, &errs)
	return errs
}
