package purchase

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
	"github.com/kenesis-labs/kenesis-engine/wallet"
)

// MetadataPipeline produces the token URI minted into the purchase NFT.
// Satisfied by *nftmeta.Pipeline.
type MetadataPipeline interface {
	CreateCourseNFT(ctx context.Context, course *backendapi.Course, token chain.PaymentToken, walletAddress string) (string, error)
}

// Confirmer reconciles the on-chain purchase with the backend. Satisfied by
// *backendapi.Client.
type Confirmer interface {
	ConfirmPurchase(ctx context.Context, accessToken string, req backendapi.ConfirmPurchaseRequest) (*backendapi.ConfirmPurchaseResult, error)
}

// AuthorizedCaller is the auth engine's single retry-once-on-401 path.
type AuthorizedCaller interface {
	WithAuthRetry(ctx context.Context, call func(accessToken string) error) error
}

// BackendConfirmation is the backend's view of a completed purchase.
// Success=false with a populated Error is a degraded success, not a
// failure: the on-chain payment already happened.
type BackendConfirmation struct {
	Success       bool
	Error         string
	OrderID       string
	AccessGranted bool
}

// Result is the terminal state of a successful purchase run.
type Result struct {
	TxHash              string
	NFTTokenID          string
	MetadataURI         string
	BackendConfirmation BackendConfirmation
}

// Snapshot is the observable flow state the UI layer subscribes to.
type Snapshot struct {
	CurrentStep Step
	Steps       []StepState
	Err         string
	Loading     bool
}

// Orchestrator drives the purchase state machine. On-chain success is
// authoritative; backend confirmation is best-effort reconciliation, an
// asymmetry that must not be "fixed": reverting a completed blockchain
// payment is not possible.
type Orchestrator struct {
	coordinator *Coordinator
	quoter      *chain.Quoter
	erc20       chain.ERC20
	marketplace chain.Marketplace
	pipeline    MetadataPipeline
	confirmer   Confirmer
	authed      AuthorizedCaller
	wallet      *wallet.ConnectionManager

	lock      sync.RWMutex
	steps     map[Step]*StepState
	current   Step
	loading   bool
	lastErr   string
	visited   []Step
	validated *PurchaseContext // context whose validation already completed
}

// Deps collects the orchestrator's collaborators.
type Deps struct {
	Coordinator *Coordinator
	Quoter      *chain.Quoter
	ERC20       chain.ERC20
	Marketplace chain.Marketplace
	Pipeline    MetadataPipeline
	Confirmer   Confirmer
	Authed      AuthorizedCaller
	Wallet      *wallet.ConnectionManager
}

func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	if deps.Coordinator == nil {
		return nil, errors.New("[NewOrchestrator] coordinator is required")
	}
	if deps.ERC20 == nil {
		return nil, errors.New("[NewOrchestrator] erc20 binding is required")
	}
	if deps.Marketplace == nil {
		return nil, errors.New("[NewOrchestrator] marketplace binding is required")
	}
	if deps.Confirmer == nil {
		return nil, errors.New("[NewOrchestrator] confirmer is required")
	}
	if deps.Authed == nil {
		return nil, errors.New("[NewOrchestrator] authorized caller is required")
	}
	if deps.Wallet == nil {
		return nil, errors.New("[NewOrchestrator] wallet manager is required")
	}
	o := &Orchestrator{
		coordinator: deps.Coordinator,
		quoter:      deps.Quoter,
		erc20:       deps.ERC20,
		marketplace: deps.Marketplace,
		pipeline:    deps.Pipeline,
		confirmer:   deps.Confirmer,
		authed:      deps.Authed,
		wallet:      deps.Wallet,
	}
	o.resetSteps()
	return o, nil
}

// Run executes the flow for pc. The user can cancel through ctx at the
// validate, switch-chain and approve steps; once the purchase transaction
// is submitted the run can only proceed to its terminal state. A run that
// failed at the purchase step resumes there on the next call with the same
// context, skipping re-validation.
func (o *Orchestrator) Run(ctx context.Context, pc *PurchaseContext) (*Result, error) {
	if pc == nil {
		return nil, errors.New("[Orchestrator.Run] purchase context is required")
	}

	// A new context means a new flow: discard the previous run's step states
	// so Status and Visited never show a prior purchase's progress. A retry
	// with the validated context keeps its state and resumes.
	o.lock.RLock()
	resuming := o.validated == pc
	o.lock.RUnlock()
	if !resuming {
		o.Reset()
	}

	o.setLoading(true)
	defer o.setLoading(false)

	token, err := o.ensureValidated(ctx, pc)
	if err != nil {
		return nil, err
	}

	if err := o.ensureChainAndAllowance(ctx, pc, token); err != nil {
		return nil, err
	}

	return o.executePurchase(ctx, pc, token)
}

// ensureValidated runs the validate step unless this exact context already
// passed it, so retries after an on-chain failure re-enter at purchase.
func (o *Orchestrator) ensureValidated(ctx context.Context, pc *PurchaseContext) (chain.PaymentToken, error) {
	o.lock.RLock()
	alreadyValidated := o.validated == pc
	o.lock.RUnlock()

	if !alreadyValidated {
		o.enter(StepValidate)
		if err := ctx.Err(); err != nil {
			return chain.PaymentToken{}, o.failStep(StepValidate, errors.Wrap(err, "cancelled"))
		}
		if reasons := pc.Validate(); len(reasons) > 0 {
			vErr := &ValidationError{Reasons: reasons}
			return chain.PaymentToken{}, o.failStep(StepValidate, vErr)
		}
	}

	token, err := chain.GetToken(pc.SelectedToken)
	if err != nil {
		return chain.PaymentToken{}, o.failStep(StepValidate, err)
	}
	if pc.TokenAmount == nil {
		if o.quoter == nil {
			return chain.PaymentToken{}, o.failStep(StepValidate, errors.New("no token amount and no quoter configured"))
		}
		amount, _, err := o.quoter.Quote(ctx, pc.Course.ID, pc.Course.Price, pc.SelectedToken)
		if err != nil {
			return chain.PaymentToken{}, o.failStep(StepValidate, errors.Wrap(err, "quote"))
		}
		pc.TokenAmount = amount
	}

	if !alreadyValidated {
		o.completeStep(StepValidate)
		o.lock.Lock()
		o.validated = pc
		o.lock.Unlock()
	}
	return token, nil
}

// ensureChainAndAllowance loops the derived pre-purchase steps until the
// wallet is on the right chain with sufficient allowance. The approve
// branch re-checks the live allowance after mining rather than assuming the
// approval took effect.
func (o *Orchestrator) ensureChainAndAllowance(ctx context.Context, pc *PurchaseContext, token chain.PaymentToken) error {
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "[Orchestrator] cancelled before purchase")
		}

		chainOK := !o.coordinator.NeedsSwitch(token.ChainID)
		approvalOK := false
		if chainOK {
			needs, err := o.coordinator.NeedsApproval(ctx, token, pc.WalletAddress, pc.TokenAmount)
			if err != nil {
				o.enter(StepApprove)
				return o.failStep(StepApprove, errors.Wrap(err, "allowance read"))
			}
			approvalOK = !needs
		}

		switch DeriveStep(true, chainOK, approvalOK) {
		case StepSwitchChain:
			o.enter(StepSwitchChain)
			if err := o.wallet.SwitchChain(ctx, token.ChainID); err != nil {
				// stay in switch-chain with the error surfaced; the user can
				// retry or switch manually
				return o.failStep(StepSwitchChain, err)
			}
			o.completeStep(StepSwitchChain)

		case StepApprove:
			o.enter(StepApprove)
			txHash, err := o.erc20.Approve(ctx, token.Address, o.coordinator.Spender(token.ChainID), pc.TokenAmount)
			if err != nil {
				return o.failStep(StepApprove, err)
			}
			if _, err := o.erc20.WaitMined(ctx, txHash); err != nil {
				return o.failStep(StepApprove, errors.Wrap(err, "approval mining"))
			}
			o.completeStep(StepApprove)
			// loop re-derives: allowance is re-read, not assumed

		case StepPurchase:
			return nil
		}
	}
}

// executePurchase runs metadata pinning, the purchase transaction and the
// best-effort backend confirmation. Every transaction error resets the step
// to purchase, never back to validate.
func (o *Orchestrator) executePurchase(ctx context.Context, pc *PurchaseContext, token chain.PaymentToken) (*Result, error) {
	o.enter(StepPurchase)
	if err := ctx.Err(); err != nil {
		return nil, o.failStep(StepPurchase, errors.Wrap(err, "cancelled"))
	}

	metadataURI := ""
	if o.pipeline != nil {
		uri, err := o.pipeline.CreateCourseNFT(ctx, pc.Course, token, pc.WalletAddress)
		if err != nil {
			return nil, o.failStep(StepPurchase, errors.Wrap(err, "nft metadata"))
		}
		metadataURI = uri
	}

	params := chain.PurchaseParams{
		CourseID:            pc.Course.ID,
		Buyer:               pc.WalletAddress,
		TokenAddress:        token.Address,
		TokenAmount:         pc.TokenAmount,
		AffiliateAddress:    pc.AffiliateAddress,
		AffiliatePercentage: pc.AffiliatePercentage,
		MetadataURI:         metadataURI,
	}
	txHash, err := o.marketplace.Purchase(ctx, params)
	if err != nil {
		return nil, o.failStep(StepPurchase, errors.Wrap(err, "purchase transaction"))
	}

	// Submitted on-chain: cancellation is no longer possible. The remaining
	// waits run detached from the caller's cancel signal.
	postCtx := context.WithoutCancel(ctx)

	receipt, err := o.marketplace.WaitMined(postCtx, txHash)
	if err != nil {
		return nil, o.failStep(StepPurchase, errors.Wrap(err, "receipt wait"))
	}
	if !receipt.Successful {
		return nil, o.failStep(StepPurchase, errors.Errorf("purchase transaction %s reverted", txHash))
	}
	o.completeStep(StepPurchase)

	result := &Result{TxHash: txHash, MetadataURI: metadataURI}
	if receipt.TokenID != nil {
		result.NFTTokenID = receipt.TokenID.String()
	}

	o.enter(StepConfirmingBackend)
	confirmReq := backendapi.ConfirmPurchaseRequest{
		CourseID:    pc.Course.ID,
		TxHash:      txHash,
		ChainID:     token.ChainID,
		TokenSymbol: token.Symbol,
		NFTTokenID:  result.NFTTokenID,
		MetadataURI: metadataURI,
	}
	var confirmRes *backendapi.ConfirmPurchaseResult
	confirmErr := o.authed.WithAuthRetry(postCtx, func(accessToken string) error {
		var callErr error
		confirmRes, callErr = o.confirmer.ConfirmPurchase(postCtx, accessToken, confirmReq)
		return callErr
	})
	if confirmErr != nil {
		// The payment already moved on-chain; a backend failure here must
		// not be reported as a failed purchase.
		log.Warn().Err(confirmErr).Str("tx", txHash).Msg("backend confirmation failed after on-chain success")
		result.BackendConfirmation = BackendConfirmation{Success: false, Error: confirmErr.Error()}
		o.completeStep(StepConfirmingBackend)
	} else {
		result.BackendConfirmation = BackendConfirmation{
			Success:       true,
			OrderID:       confirmRes.OrderID,
			AccessGranted: confirmRes.AccessGranted,
		}
		o.completeStep(StepConfirmingBackend)
	}

	o.enter(StepComplete)
	o.completeStep(StepComplete)
	o.lock.Lock()
	o.validated = nil // context is discarded after a terminal state
	o.lock.Unlock()

	log.Info().Str("tx", txHash).Str("course", pc.Course.ID).
		Bool("backend_confirmed", result.BackendConfirmation.Success).
		Msg("purchase complete")
	return result, nil
}

// Status returns a snapshot of the flow state.
func (o *Orchestrator) Status() Snapshot {
	o.lock.RLock()
	defer o.lock.RUnlock()
	steps := make([]StepState, 0, len(StepOrder))
	for _, s := range StepOrder {
		steps = append(steps, *o.steps[s])
	}
	return Snapshot{CurrentStep: o.current, Steps: steps, Err: o.lastErr, Loading: o.loading}
}

// Visited returns the steps entered so far, in order.
func (o *Orchestrator) Visited() []Step {
	o.lock.RLock()
	defer o.lock.RUnlock()
	out := make([]Step, len(o.visited))
	copy(out, o.visited)
	return out
}

// Reset discards all flow state for a fresh purchase context.
func (o *Orchestrator) Reset() {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.resetStepsLocked()
}

func (o *Orchestrator) resetSteps() {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.resetStepsLocked()
}

func (o *Orchestrator) resetStepsLocked() {
	o.steps = make(map[Step]*StepState, len(StepOrder))
	for _, s := range StepOrder {
		o.steps[s] = &StepState{Step: s, Status: StatusPending}
	}
	o.current = StepValidate
	o.lastErr = ""
	o.visited = nil
	o.validated = nil
}

func (o *Orchestrator) enter(step Step) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.current = step
	o.steps[step].Status = StatusInProgress
	o.steps[step].Error = ""
	o.visited = append(o.visited, step)
}

func (o *Orchestrator) completeStep(step Step) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.steps[step].Status = StatusCompleted
}

func (o *Orchestrator) failStep(step Step, err error) error {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.current = step
	o.steps[step].Status = StatusFailed
	o.steps[step].Error = err.Error()
	o.lastErr = err.Error()
	return err
}

func (o *Orchestrator) setLoading(loading bool) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.loading = loading
}
