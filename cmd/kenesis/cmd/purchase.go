package cmd

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
	"github.com/kenesis-labs/kenesis-engine/chain/chainfakes"
	"github.com/kenesis-labs/kenesis-engine/purchase"
)

var (
	purchaseToken     string
	purchaseAffiliate string
	purchaseSimulate  bool
)

var purchaseCmd = &cobra.Command{
	Use:   "purchase <courseID>",
	Short: "Run the purchase state machine for a course",
	Long: `purchase drives the full flow: validate, switch chain, approve, on-chain
purchase and backend confirmation.

With --simulate the contract legs run against in-memory bindings, which
exercises the state machine end to end without moving funds. Without it a
real contract binding must be configured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		if !purchaseSimulate {
			return errors.New("no contract binding configured; run with --simulate")
		}
		displayBanner()

		engine, walletManager, err := buildAuthEngine()
		if err != nil {
			return err
		}
		if err := walletManager.Connect(command.Context()); err != nil {
			return errors.Wrap(err, "connect wallet")
		}

		client := backendapi.NewClient(cfg.GetBackendBaseURL())
		course, err := client.GetCourse(command.Context(), args[0])
		if err != nil {
			return err
		}

		erc20 := chainfakes.NewFakeERC20(walletManager.Address())
		marketplace := chainfakes.NewFakeMarketplace()
		token, err := chain.GetToken(purchaseToken)
		if err != nil {
			return err
		}
		amount, err := chain.LocalAmount(course.Price, token)
		if err != nil {
			return err
		}
		marketplace.QuoteAmount = new(big.Int).Set(amount)

		coordinator, err := purchase.NewCoordinator(erc20, walletManager, cfg.GetMarketplaceAddress)
		if err != nil {
			return err
		}
		orchestrator, err := purchase.NewOrchestrator(purchase.Deps{
			Coordinator: coordinator,
			Quoter:      chain.NewQuoter(marketplace),
			ERC20:       erc20,
			Marketplace: marketplace,
			Confirmer:   client,
			Authed:      engine,
			Wallet:      walletManager,
		})
		if err != nil {
			return err
		}

		result, err := orchestrator.Run(command.Context(), &purchase.PurchaseContext{
			Course:           course,
			SelectedToken:    purchaseToken,
			AffiliateAddress: purchaseAffiliate,
			WalletAddress:    walletManager.Address(),
		})
		if err != nil {
			return err
		}

		fmt.Printf("Purchase complete: tx=%s nft=%s\n", result.TxHash, result.NFTTokenID)
		if !result.BackendConfirmation.Success {
			fmt.Printf("Warning: backend confirmation pending (%s)\n", result.BackendConfirmation.Error)
		}
		return nil
	},
}

func init() {
	purchaseCmd.Flags().StringVar(&purchaseToken, "token", "USDT-137", "Payment token key (SYMBOL-chainID)")
	purchaseCmd.Flags().StringVar(&purchaseAffiliate, "affiliate", "", "Affiliate wallet address")
	purchaseCmd.Flags().BoolVar(&purchaseSimulate, "simulate", false, "Use in-memory contract bindings")
	rootCmd.AddCommand(purchaseCmd)
}
