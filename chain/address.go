package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// ValidateAddress checks hex shape and, for mixed-case input, the EIP-55
// checksum. All-lower and all-upper addresses carry no checksum and pass on
// shape alone, matching wallet-provider behaviour.
func ValidateAddress(address string) error {
	if !common.IsHexAddress(address) {
		return errors.Wrap(ErrInvalidAddress, address)
	}
	stripped := strings.TrimPrefix(address, "0x")
	if stripped == strings.ToLower(stripped) || stripped == strings.ToUpper(stripped) {
		return nil
	}
	if common.HexToAddress(address).Hex() != address {
		return errors.Wrapf(ErrInvalidAddress, "%s fails checksum", address)
	}
	return nil
}

// NormalizeAddress returns the EIP-55 checksummed form.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", errors.Wrap(ErrInvalidAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}
