package config

import "time"

type AuthTimings struct{}

var _ AuthConfig = AuthTimings{}

// GetSignatureTimeout bounds how long the engine waits for a wallet
// signature before forcing a disconnect. Signing is user-paced, so this is
// deliberately generous.
func (AuthTimings) GetSignatureTimeout() time.Duration {
	return 5 * time.Minute
}

// GetLinkStabilisationDelay is the pause between wallet connection and the
// link-signature request. Some wallet providers report a connected account
// before their internal signer is ready.
func (AuthTimings) GetLinkStabilisationDelay() time.Duration {
	return 500 * time.Millisecond
}

func (AuthTimings) GetSessionFile() string {
	return GetEnv("SESSION_FILE", "./data/session.json")
}
