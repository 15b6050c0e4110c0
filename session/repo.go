package session

// Repo defines storage for the single active session. The engine owns one
// session at a time; Upsert replaces whatever was stored before.
type Repo interface {
	// Upsert stores the session after Validate passes
	Upsert(session *Session) error

	// Get retrieves the active session, ErrNoSession when none exists
	Get() (*Session, error)

	// Delete destroys the active session (logout, unrecoverable refresh failure)
	Delete() error
}
