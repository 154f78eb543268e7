package service

import (
	"unicode"

	"github.com/b2b-portale/internal/config"
)

type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string {
	return e.key
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func (e passwordPolicyError) Key() string {
	return e.key
}

func (e passwordPolicyError) Args() []interface{} {
	return e.args
}

type charClasses struct {
	upper   bool
	lower   bool
	number  bool
	special bool
}

func scanCharClasses(password string) charClasses {
	var classes charClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			classes.upper = true
		case unicode.IsLower(r):
			classes.lower = true
		case unicode.IsDigit(r):
			classes.number = true
		default:
			classes.special = true
		}
	}
	return classes
}

// validatePassword 按配置的密码策略逐条校验，返回首个未满足项
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
	}

	classes := scanCharClasses(password)
	requirements := []struct {
		required bool
		present  bool
		key      string
	}{
		{policy.RequireUpper, classes.upper, "error.password_require_upper"},
		{policy.RequireLower, classes.lower, "error.password_require_lower"},
		{policy.RequireNumber, classes.number, "error.password_require_number"},
		{policy.RequireSpecial, classes.special, "error.password_require_special"},
	}
	for _, req := range requirements {
		if req.required && !req.present {
			return passwordPolicyError{key: req.key}
		}
	}
	return nil
}
