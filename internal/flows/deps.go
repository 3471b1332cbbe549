package flows

import "time"

// AccountRecord is the flow-local account model. Flows see only what they
// need to decide outcomes; full account lifecycle stays with the provider.
type AccountRecord struct {
	ID                string
	Username          string
	Mobile            string
	Email             string
	PasswordHash      string
	Disabled          bool
	Deleted           bool
	MustResetPassword bool
}

// EmitFunc persists one audit entry synchronously. Flows call it on every
// security-relevant branch before returning; a persistence failure aborts
// the flow with that error, preserving the entry-before-return invariant.
type EmitFunc func(eventType, status, accountID string) error

func defaultNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func defaultMetricInc(inc func(int)) func(int) {
	if inc == nil {
		return func(int) {}
	}
	return inc
}
