package config

type Pinning struct{}

var _ PinningConfig = Pinning{}

func (Pinning) GetPinningBaseURL() string {
	return GetEnv("PINATA_BASE_URL", "https://api.pinata.cloud")
}

func (Pinning) GetPinningJWT() string {
	return GetEnv("PINATA_JWT", "")
}

func (Pinning) GetGatewayBaseURL() string {
	return GetEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs")
}
