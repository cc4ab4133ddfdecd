package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/quizmaster/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	core.Validate.RegisterStructValidation(newUserStructValidation, NewUser{})

	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

func newUserStructValidation(sl validator.StructLevel) {
	nu := sl.Current().Interface().(NewUser)
	validatePassword(sl, nu.Password, "Password", nu.Username, nu.Email)
}

// validatePassword enforces the password policy on `pwd`;
// `attrs` are user attributes (username, email) the password may not resemble.
func validatePassword(sl validator.StructLevel, pwd, field string, attrs ...string) {
	if pwd == "" {
		return // `required` has this covered
	}

	if len(pwd) < pwdMinLen {
		sl.ReportError(pwd, "password", field, pwdMinLenTag, "")
	}
	if strings.ContainsAny(pwd, " \t\n") {
		sl.ReportError(pwd, "password", field, pwdNoSpaceTag, "")
	}

	var hasUpper, hasLower, hasDigit, hasNonDigit bool
	for _, r := range pwd {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
			hasNonDigit = true
		case unicode.IsLower(r):
			hasLower = true
			hasNonDigit = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasNonDigit = true
		}
	}
	if !hasNonDigit {
		sl.ReportError(pwd, "password", field, pwdNotAllNumTag, "")
	}
	if !(hasUpper && hasLower && hasDigit && specialRegex.MatchString(pwd)) {
		sl.ReportError(pwd, "password", field, pwdComplexityTag, "")
	}

	// no close resemblance to the user's own attributes
	lowPwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		for _, part := range strings.FieldsFunc(strings.ToLower(attr), func(r rune) bool { return r == '@' || r == '.' || r == '_' || r == '-' }) {
			if part == "" {
				continue
			}
			m := difflib.NewMatcher(splitChars(lowPwd), splitChars(part))
			if m.Ratio() > pwdMaxSim {
				sl.ReportError(pwd, "password", field, pwdAttrSimTag, "")
				return
			}
		}
	}
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
