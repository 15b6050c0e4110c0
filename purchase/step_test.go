package purchase_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kenesis-labs/kenesis-engine/purchase"
)

func TestDeriveStep(t *testing.T) {
	tests := []struct {
		validationOK, chainOK, approvalOK bool
		want                              purchase.Step
	}{
		{false, false, false, purchase.StepValidate},
		{false, true, true, purchase.StepValidate},
		{true, false, false, purchase.StepSwitchChain},
		{true, false, true, purchase.StepSwitchChain},
		{true, true, false, purchase.StepApprove},
		{true, true, true, purchase.StepPurchase},
	}
	for _, tc := range tests {
		got := purchase.DeriveStep(tc.validationOK, tc.chainOK, tc.approvalOK)
		require.Equal(t, tc.want, got,
			"validationOK=%v chainOK=%v approvalOK=%v", tc.validationOK, tc.chainOK, tc.approvalOK)
	}
}

func TestDeriveStepIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		require.Equal(t, purchase.StepApprove, purchase.DeriveStep(true, true, false))
	}
}
