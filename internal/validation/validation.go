package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nahidhasan98/autolog/internal/errors"
	"github.com/nahidhasan98/autolog/internal/gitlog"
)

// WhatsApp JID patterns
var (
	// Individual JID pattern: number@s.whatsapp.net
	individualJIDPattern = regexp.MustCompile(`^\d{10,15}@s\.whatsapp\.net$`)

	// Group JID pattern: groupid@g.us or legacy creator-timestamp@g.us
	groupJIDPattern = regexp.MustCompile(`^\d+(-\d+)?@g\.us$`)

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Validator provides validation methods
type Validator struct {
	loc *time.Location
}

// New creates a validator resolving dates in loc; nil means time.Local
func New(loc *time.Location) *Validator {
	if loc == nil {
		loc = time.Local
	}
	return &Validator{loc: loc}
}

// ParseDay parses a YYYY-MM-DD date into midnight of that day. An empty value
// falls back to fallback.
func (v *Validator) ParseDay(value string, fallback time.Time) (time.Time, *errors.AppError) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}

	if !datePattern.MatchString(value) {
		return time.Time{}, errors.ValidationError(fmt.Sprintf("Invalid date %q: expected YYYY-MM-DD", value))
	}

	day, err := time.ParseInLocation(gitlog.DateLayout, value, v.loc)
	if err != nil {
		return time.Time{}, errors.ValidationError(fmt.Sprintf("Invalid date %q: %v", value, err))
	}

	return day, nil
}

// IsValidJID checks if a JID is a WhatsApp user or group address
func (v *Validator) IsValidJID(jid string) bool {
	jid = strings.TrimSpace(jid)
	return individualJIDPattern.MatchString(jid) || groupJIDPattern.MatchString(jid)
}

// NormalizeJID turns a bare phone number into a user JID
func (v *Validator) NormalizeJID(jid string) (string, *errors.AppError) {
	jid = strings.TrimSpace(jid)
	if v.IsValidJID(jid) {
		return jid, nil
	}

	digits := nonDigits.ReplaceAllString(jid, "")
	if len(digits) >= 10 && len(digits) <= 15 && !strings.Contains(jid, "@") {
		return digits + "@s.whatsapp.net", nil
	}

	return "", errors.ValidationError(fmt.Sprintf("Invalid WhatsApp JID: %s", jid))
}

var nonDigits = regexp.MustCompile(`\D`)
