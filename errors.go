package authcore

import (
	"errors"

	"github.com/authcore-dev/authcore/internal/audit"
	"github.com/authcore-dev/authcore/internal/limiters"
	"github.com/authcore-dev/authcore/internal/policy"
	"github.com/authcore-dev/authcore/internal/stores"
)

var (
	// ErrEngineNotReady indicates a required dependency was not configured.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrInvalidChannel indicates an unknown delivery channel value.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidPurpose indicates an unknown verification purpose value.
	ErrInvalidPurpose = errors.New("invalid purpose")

	// ErrChannelNotAllowed indicates the delivery channel is excluded by the
	// current login policy.
	ErrChannelNotAllowed = errors.New("channel not allowed by policy")

	// ErrIdentifierNotAllowed indicates the identifier kind is excluded by
	// the current login policy.
	ErrIdentifierNotAllowed = errors.New("identifier not allowed by policy")

	// ErrInvalidIdentifier indicates a missing or malformed identifier value.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Storage sentinels, re-exported so callers can classify infrastructure
// failures without importing internal packages.
var (
	ErrVerificationUnavailable = stores.ErrVerificationUnavailable
	ErrTokenUnavailable        = stores.ErrTokenUnavailable
	ErrLimiterUnavailable      = limiters.ErrLimiterUnavailable
	ErrTrailUnavailable        = audit.ErrTrailUnavailable
	ErrSettingsUnavailable     = policy.ErrSettingsUnavailable
	ErrUnknownPolicyKey        = policy.ErrUnknownKey
)
