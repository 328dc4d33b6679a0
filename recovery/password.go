package recovery

import (
	"math"

	"github.com/trustelem/zxcvbn"
)

// PasswordStrength is an advisory score for a candidate recovery password.
// The resolver itself only requires a non-empty password; clients use this to
// warn before a weak password guards a recovery share.
type PasswordStrength struct {
	Score    int     // zxcvbn score, 0 (trivial) to 4 (strong)
	Entropy  float64 // estimated bits, log2 of the guess count
	Warnings []string
}

// Acceptable reports whether the password clears the advisory floor.
func (s PasswordStrength) Acceptable() bool {
	return s.Score >= 3
}

// ScorePassword analyzes a candidate recovery password. userInputs holds
// user-specific strings (email, display name) that should count against the
// score when the password contains them.
func ScorePassword(password string, userInputs []string) PasswordStrength {
	if password == "" {
		return PasswordStrength{Warnings: []string{"password is empty"}}
	}

	result := zxcvbn.PasswordStrength(password, userInputs)

	strength := PasswordStrength{Score: result.Score}
	if result.Guesses > 0 {
		strength.Entropy = math.Log2(result.Guesses)
	}

	for _, seq := range result.Sequence {
		switch seq.Pattern {
		case "dictionary":
			strength.Warnings = append(strength.Warnings, "contains common dictionary words")
		case "spatial":
			strength.Warnings = append(strength.Warnings, "contains keyboard patterns")
		case "repeat":
			strength.Warnings = append(strength.Warnings, "contains repeated characters")
		case "sequence":
			strength.Warnings = append(strength.Warnings, "contains sequential patterns")
		}
	}

	return strength
}
