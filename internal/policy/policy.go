package policy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key identifies one login policy setting. Values are persisted as strings
// through the [Settings] contract and parsed into [Policy] fields.
type Key string

const (
	KeySignUpChannels        Key = "signup.channels"
	KeySignUpCodeTTL         Key = "signup.code.ttl_minutes"
	KeySignUpCodeMaxAttempts Key = "signup.code.max_attempts"
	KeySignUpSendWindow      Key = "signup.send.window_minutes"
	KeySignUpSendMax         Key = "signup.send.max"

	KeySignInChannels        Key = "signin.channels"
	KeySignInCodeTTL         Key = "signin.code.ttl_minutes"
	KeySignInCodeMaxAttempts Key = "signin.code.max_attempts"
	KeySignInSendWindow      Key = "signin.send.window_minutes"
	KeySignInSendMax         Key = "signin.send.max"

	KeyPasswordIdentifiers   Key = "password.identifiers"
	KeyLockoutWindow         Key = "password.lockout.window_minutes"
	KeyLockoutMaxAttempts    Key = "password.lockout.max_attempts"

	KeySessionTTL Key = "session.ttl_minutes"
)

// ErrUnknownKey is returned by Patch for keys outside the policy schema.
var ErrUnknownKey = errors.New("unknown policy key")

// Policy is the typed view of all login policy settings. Zero values for
// *MaxAttempts, *SendMax, and LockoutMaxAttempts mean the corresponding
// limit is disabled; a zero SessionTTL means session-scoped tokens.
type Policy struct {
	SignUpChannels        []string
	SignUpCodeTTL         time.Duration
	SignUpCodeMaxAttempts int
	SignUpSendWindow      time.Duration
	SignUpSendMax         int

	SignInChannels        []string
	SignInCodeTTL         time.Duration
	SignInCodeMaxAttempts int
	SignInSendWindow      time.Duration
	SignInSendMax         int

	PasswordIdentifiers []string
	LockoutWindow       time.Duration
	LockoutMaxAttempts  int

	SessionTTL time.Duration
}

// Defaults returns the documented default policy.
func Defaults() Policy {
	return Policy{
		SignUpChannels:        []string{"mobile"},
		SignUpCodeTTL:         10 * time.Minute,
		SignUpCodeMaxAttempts: 3,
		SignUpSendWindow:      60 * time.Minute,
		SignUpSendMax:         5,

		SignInChannels:        []string{"mobile"},
		SignInCodeTTL:         10 * time.Minute,
		SignInCodeMaxAttempts: 3,
		SignInSendWindow:      60 * time.Minute,
		SignInSendMax:         5,

		PasswordIdentifiers: []string{"username"},
		LockoutWindow:       1440 * time.Minute,
		LockoutMaxAttempts:  5,

		SessionTTL: 0,
	}
}

func defaultValues() map[Key]string {
	return encode(Defaults())
}

func encode(p Policy) map[Key]string {
	return map[Key]string{
		KeySignUpChannels:        strings.Join(p.SignUpChannels, ","),
		KeySignUpCodeTTL:         minutes(p.SignUpCodeTTL),
		KeySignUpCodeMaxAttempts: strconv.Itoa(p.SignUpCodeMaxAttempts),
		KeySignUpSendWindow:      minutes(p.SignUpSendWindow),
		KeySignUpSendMax:         strconv.Itoa(p.SignUpSendMax),

		KeySignInChannels:        strings.Join(p.SignInChannels, ","),
		KeySignInCodeTTL:         minutes(p.SignInCodeTTL),
		KeySignInCodeMaxAttempts: strconv.Itoa(p.SignInCodeMaxAttempts),
		KeySignInSendWindow:      minutes(p.SignInSendWindow),
		KeySignInSendMax:         strconv.Itoa(p.SignInSendMax),

		KeyPasswordIdentifiers: strings.Join(p.PasswordIdentifiers, ","),
		KeyLockoutWindow:       minutes(p.LockoutWindow),
		KeyLockoutMaxAttempts:  strconv.Itoa(p.LockoutMaxAttempts),

		KeySessionTTL: minutes(p.SessionTTL),
	}
}

func minutes(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Minute), 10)
}

func decode(values map[Key]string) (Policy, error) {
	p := Defaults()

	for key, raw := range values {
		var err error
		switch key {
		case KeySignUpChannels:
			p.SignUpChannels = splitList(raw)
		case KeySignUpCodeTTL:
			p.SignUpCodeTTL, err = parseMinutes(raw)
		case KeySignUpCodeMaxAttempts:
			p.SignUpCodeMaxAttempts, err = parseCount(raw)
		case KeySignUpSendWindow:
			p.SignUpSendWindow, err = parseMinutes(raw)
		case KeySignUpSendMax:
			p.SignUpSendMax, err = parseCount(raw)
		case KeySignInChannels:
			p.SignInChannels = splitList(raw)
		case KeySignInCodeTTL:
			p.SignInCodeTTL, err = parseMinutes(raw)
		case KeySignInCodeMaxAttempts:
			p.SignInCodeMaxAttempts, err = parseCount(raw)
		case KeySignInSendWindow:
			p.SignInSendWindow, err = parseMinutes(raw)
		case KeySignInSendMax:
			p.SignInSendMax, err = parseCount(raw)
		case KeyPasswordIdentifiers:
			p.PasswordIdentifiers = splitList(raw)
		case KeyLockoutWindow:
			p.LockoutWindow, err = parseMinutes(raw)
		case KeyLockoutMaxAttempts:
			p.LockoutMaxAttempts, err = parseCount(raw)
		case KeySessionTTL:
			p.SessionTTL, err = parseMinutes(raw)
		default:
			// Unknown persisted keys are skipped so schema additions can
			// roll forward and back without breaking older readers.
			continue
		}
		if err != nil {
			return Policy{}, fmt.Errorf("policy key %q: %w", key, err)
		}
	}
	return p, nil
}

func validate(key Key, raw string) error {
	switch key {
	case KeySignUpChannels, KeySignInChannels, KeyPasswordIdentifiers:
		if len(splitList(raw)) == 0 {
			return errors.New("empty list value")
		}
		return nil
	case KeySignUpCodeTTL, KeySignUpSendWindow, KeySignInCodeTTL,
		KeySignInSendWindow, KeyLockoutWindow, KeySessionTTL:
		_, err := parseMinutes(raw)
		return err
	case KeySignUpCodeMaxAttempts, KeySignUpSendMax, KeySignInCodeMaxAttempts,
		KeySignInSendMax, KeyLockoutMaxAttempts:
		_, err := parseCount(raw)
		return err
	default:
		return ErrUnknownKey
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseMinutes(raw string) (time.Duration, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New("value must be a non-negative integer of minutes")
	}
	return time.Duration(n) * time.Minute, nil
}

func parseCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, errors.New("value must be a non-negative integer")
	}
	return n, nil
}
