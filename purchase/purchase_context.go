package purchase

import (
	"fmt"
	"math/big"

	"github.com/go-playground/validator/v10"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
)

var validate = validator.New()

// PurchaseContext is the input to one run of the purchase flow. Created
// when the user opens the flow, discarded after a terminal state.
type PurchaseContext struct {
	Course        *backendapi.Course `validate:"required"`
	SelectedToken string             `validate:"required"` // "SYMBOL-chainID"
	// TokenAmount is the amount owed in the token's smallest unit; nil means
	// the orchestrator quotes it
	TokenAmount         *big.Int
	AffiliateAddress    string
	AffiliatePercentage int64 `validate:"gte=0,lte=10000"` // basis points
	WalletAddress       string `validate:"required"`
}

// ValidationError lists every reason a purchase context was rejected. The
// flow fails closed: any reason blocks progression, there is no partial
// proceed.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("purchase validation failed: %v", e.Reasons)
}

// Validate checks purchasability, wallet address well-formedness and token
// key parseability. Returns every failure at once so the UI can render the
// full list.
func (pc *PurchaseContext) Validate() []string {
	var reasons []string

	if err := validate.Struct(pc); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range vErrs {
				reasons = append(reasons, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
			}
		} else {
			reasons = append(reasons, err.Error())
		}
	}

	if pc.WalletAddress != "" {
		if err := chain.ValidateAddress(pc.WalletAddress); err != nil {
			reasons = append(reasons, "wallet address is not a valid address")
		}
	}
	if pc.AffiliateAddress != "" {
		if err := chain.ValidateAddress(pc.AffiliateAddress); err != nil {
			reasons = append(reasons, "affiliate address is not a valid address")
		}
	}

	if pc.SelectedToken != "" {
		if _, _, err := chain.ParseTokenKey(pc.SelectedToken); err != nil {
			reasons = append(reasons, fmt.Sprintf("payment token %q is malformed", pc.SelectedToken))
		} else if _, err := chain.GetToken(pc.SelectedToken); err != nil {
			reasons = append(reasons, fmt.Sprintf("payment token %q is not supported", pc.SelectedToken))
		}
	}

	if pc.Course != nil {
		if !pc.Course.IsPublished || !pc.Course.IsAvailable {
			reasons = append(reasons, "course is not available for purchase")
		}
		if pc.Course.AvailableQuantity > 0 && pc.Course.SoldCount >= pc.Course.AvailableQuantity {
			reasons = append(reasons, "course is sold out")
		}
		if pc.Course.Price < 0 {
			reasons = append(reasons, "course price is invalid")
		}
	}

	if pc.TokenAmount != nil && pc.TokenAmount.Sign() <= 0 {
		reasons = append(reasons, "token amount must be positive")
	}

	return reasons
}
