package authcore

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// CN mobile numbers: 11 digits, 13x-19x prefixes.
	defaultMobilePattern = `^1[3-9]\d{9}$`

	emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`
)

// identifierMatcher validates identifier values per kind. Username rules
// belong to the embedding CRUD layer; the engine only requires non-empty.
type identifierMatcher struct {
	mobile *regexp.Regexp
	email  *regexp.Regexp
}

func newIdentifierMatcher(mobilePattern string) (*identifierMatcher, error) {
	if mobilePattern == "" {
		mobilePattern = defaultMobilePattern
	}
	mobile, err := regexp.Compile(mobilePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid mobile pattern: %v", err)
	}
	return &identifierMatcher{
		mobile: mobile,
		email:  regexp.MustCompile(emailPattern),
	}, nil
}

func (m *identifierMatcher) valid(kind IdentifierKind, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	switch kind {
	case IdentifierUsername:
		return true
	case IdentifierMobile:
		return m.mobile.MatchString(value)
	case IdentifierEmail:
		return m.email.MatchString(value)
	default:
		return false
	}
}

func identifierAllowed(allowed []string, kind IdentifierKind) bool {
	for _, name := range allowed {
		if name == string(kind) {
			return true
		}
	}
	return false
}

func channelAllowed(allowed []string, channel Channel) bool {
	for _, name := range allowed {
		if name == channel.String() {
			return true
		}
	}
	return false
}
