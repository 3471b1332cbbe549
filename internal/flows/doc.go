// Package flows holds the orchestration logic for the authentication
// lifecycle: code issuance and validation, password and code sign-in,
// sign-up, session authentication and sign-out, and password updates.
//
// Each flow takes its collaborators as a struct of function fields so the
// engine can wire stores, limiters, and the audit trail without the flows
// importing them. Flows own the decision order and the audit contract: every
// security-relevant branch writes its entry before the flow returns.
package flows
