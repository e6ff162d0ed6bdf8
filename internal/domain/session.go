package domain

import "github.com/google/uuid"

// Session identifies the authenticated caller for one request. It is passed
// explicitly into every core operation instead of living in ambient state,
// so tests can simulate multiple owners deterministically.
type Session struct {
	UserID  uuid.UUID
	Email   string
	Premium bool
}
