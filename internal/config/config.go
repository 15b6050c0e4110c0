package config

import "time"

type Config interface {
	EnvConfig
	ChainConfig
	PinningConfig
	AuthConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBackendBaseURL() string
}

type ChainConfig interface {
	GetDefaultChainID() int64
	GetMarketplaceAddress(chainID int64) string
}

type PinningConfig interface {
	GetPinningBaseURL() string
	GetPinningJWT() string
	GetGatewayBaseURL() string
}

type AuthConfig interface {
	GetSignatureTimeout() time.Duration
	GetLinkStabilisationDelay() time.Duration
	GetSessionFile() string
}

type mainConfig struct {
	EnvVars
	Chains
	Pinning
	AuthTimings
}

func New() Config {
	return mainConfig{}
}
