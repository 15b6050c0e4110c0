package chain

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Quoter computes the token amount owed for a course in a selected payment
// token. The marketplace quote view is authoritative; for stable tokens a
// local price conversion serves as fallback when the view is unreachable.
type Quoter struct {
	marketplace Marketplace
}

func NewQuoter(marketplace Marketplace) *Quoter {
	return &Quoter{marketplace: marketplace}
}

// Quote resolves tokenKey and returns the amount in the token's smallest
// unit.
func (q *Quoter) Quote(ctx context.Context, courseID string, priceUSD float64, tokenKey string) (*big.Int, PaymentToken, error) {
	token, err := GetToken(tokenKey)
	if err != nil {
		return nil, PaymentToken{}, errors.Wrap(err, "[Quoter.Quote]")
	}

	if q.marketplace != nil {
		amount, err := q.marketplace.Quote(ctx, courseID, token.Address)
		if err == nil && amount != nil && amount.Sign() > 0 {
			return amount, token, nil
		}
		if err != nil {
			log.Warn().Err(err).Str("course", courseID).Str("token", token.Key()).
				Msg("on-chain quote unavailable, falling back to local conversion")
		}
	}

	amount, err := LocalAmount(priceUSD, token)
	if err != nil {
		return nil, PaymentToken{}, errors.Wrap(err, "[Quoter.Quote] local fallback")
	}
	return amount, token, nil
}

// LocalAmount converts a USD price into the token's smallest unit using the
// registry's stable rate. Computed in big.Rat to avoid float truncation on
// 18-decimal tokens.
func LocalAmount(priceUSD float64, token PaymentToken) (*big.Int, error) {
	if token.USDRate <= 0 {
		return nil, errors.Errorf("[LocalAmount] no local rate for %s", token.Key())
	}
	if priceUSD < 0 {
		return nil, errors.New("[LocalAmount] negative price")
	}
	price := new(big.Rat).SetFloat64(priceUSD)
	rate := new(big.Rat).SetFloat64(token.USDRate)
	if price == nil || rate == nil {
		return nil, errors.New("[LocalAmount] unrepresentable price")
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(token.Decimals)), nil)
	amount := new(big.Rat).Mul(price, rate)
	amount.Mul(amount, new(big.Rat).SetInt(scale))

	// Round up so the approval always covers the owed amount
	quo := new(big.Int)
	rem := new(big.Int)
	quo.QuoRem(amount.Num(), amount.Denom(), rem)
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo, nil
}
