// internal/common/validation/password.go
package validation

import "regexp"

// Character-class predicates shared by the password rules and the strength
// meter. Special means anything outside ASCII letters and digits.
var (
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func HasUpper(s string) bool   { return upperPattern.MatchString(s) }
func HasLower(s string) bool   { return lowerPattern.MatchString(s) }
func HasDigit(s string) bool   { return digitPattern.MatchString(s) }
func HasSpecial(s string) bool { return specialPattern.MatchString(s) }

// MaxStrength is the highest score PasswordStrength can return.
const MaxStrength = 4

// PasswordStrength scores a password 0..4, one point per character class
// present. Every class is checked; the empty string scores 0.
func PasswordStrength(password string) int {
	score := 0
	for _, has := range []func(string) bool{HasUpper, HasLower, HasDigit, HasSpecial} {
		if has(password) {
			score++
		}
	}
	return score
}

// StrengthLabel is the caption displayed under the password input.
func StrengthLabel(score int) string {
	switch score {
	case 0:
		return "Enter password"
	case 1:
		return "Very weak"
	case 2:
		return "Weak"
	case 3:
		return "Medium"
	case 4:
		return "Strong"
	default:
		return ""
	}
}
