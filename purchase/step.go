// Package purchase drives the end-to-end course purchase: validation,
// chain switch, token approval, the on-chain purchase transaction and
// best-effort backend reconciliation.
package purchase

// Step is a named stage of the purchase flow.
type Step string

const (
	StepValidate          Step = "validate"
	StepSwitchChain       Step = "switch-chain"
	StepApprove           Step = "approve"
	StepPurchase          Step = "purchase"
	StepConfirmingBackend Step = "confirming-backend"
	StepComplete          Step = "complete"
)

// StepStatus is the state of a single step.
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in-progress"
	StatusCompleted  StepStatus = "completed"
	StatusFailed     StepStatus = "failed"
)

// StepState pairs a step with its current status and, when failed, the
// user-facing reason.
type StepState struct {
	Step   Step
	Status StepStatus
	Error  string
}

// StepOrder is the full progression in order. Steps that turn out to be
// unnecessary (switch-chain on the right chain, approve with sufficient
// allowance) stay pending and are never entered.
var StepOrder = []Step{
	StepValidate,
	StepSwitchChain,
	StepApprove,
	StepPurchase,
	StepConfirmingBackend,
	StepComplete,
}

// DeriveStep computes the next actionable step from the latest known
// external state. Pure: the current step is always a deterministic function
// of these booleans, never an independently stored variable, so step state
// cannot drift from reality when the wallet changes chain or allowance
// out-of-band.
func DeriveStep(validationOK, chainOK, approvalOK bool) Step {
	switch {
	case !validationOK:
		return StepValidate
	case !chainOK:
		return StepSwitchChain
	case !approvalOK:
		return StepApprove
	default:
		return StepPurchase
	}
}
