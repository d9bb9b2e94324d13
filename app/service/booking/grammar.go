package booking

import (
	"regexp"
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"
)

const (
	maxTitleLength = 120
	maxPhoneLength = 40
	minPhoneDigits = 7
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	yesTokens   = []string{"yes", "y", "yeah", "yep", "confirm", "correct", "ok", "okay", "sure"}
	noTokens    = []string{"no", "n", "nope", "cancel", "restart"}
	skipTokens  = []string{"skip", "no", "none"}
	resetTokens = []string{"restart", "reset", "start over"}
)

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidEmail(s string) bool {
	s = NormalizeEmail(s)
	if strings.Contains(s, "..") {
		return false
	}

	return emailRe.MatchString(s)
}

// NormalizePhone strips everything except digits and a single leading plus.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > maxPhoneLength {
		out = out[:maxPhoneLength]
	}

	return out
}

func ValidPhone(s string) bool {
	s = NormalizePhone(s)

	digits := strings.TrimPrefix(s, "+")
	if len(digits) < minPhoneDigits {
		return false
	}

	return !strings.Contains(digits, "+")
}

// ParseStart accepts only offset-qualified ISO-8601 timestamps. A bare local
// time without an offset or trailing Z is rejected.
func ParseStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// ParseYesNo resolves an explicit confirmation token from the raw utterance.
// The leading word decides, so "no thanks" reads as a rejection. An explicit
// token always overrides the extractor's inferred intent.
func ParseYesNo(text string) Intent {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return IntentNone
	}

	word := strings.Trim(fields[0], ".,!?:;")

	if pie.Contains(yesTokens, word) {
		return IntentConfirm
	}
	if pie.Contains(noTokens, word) {
		return IntentReject
	}

	return IntentNone
}

// IsSkip reports whether the utterance explicitly skips the optional title.
func IsSkip(text string) bool {
	return pie.Contains(skipTokens, strings.ToLower(strings.TrimSpace(text)))
}

// IsReset reports whether the utterance asks for a fresh booking after done.
func IsReset(text string) bool {
	return pie.Contains(resetTokens, strings.ToLower(strings.TrimSpace(text)))
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxTitleLength {
		return s[:maxTitleLength]
	}

	return s
}
