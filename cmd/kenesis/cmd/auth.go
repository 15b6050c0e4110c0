package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kenesis-labs/kenesis-engine/auth"
	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/session"
	"github.com/kenesis-labs/kenesis-engine/wallet"
)

var authBio string

var authCmd = &cobra.Command{
	Use:   "auth [signin|signup]",
	Short: "Authenticate the configured wallet against the Kenesis backend",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		displayBanner()

		intent := auth.IntentAuto
		if len(args) == 1 {
			switch args[0] {
			case "signin":
				intent = auth.IntentSignin
			case "signup":
				intent = auth.IntentSignup
			default:
				return errors.Errorf("unknown intent %q", args[0])
			}
		}

		engine, walletManager, err := buildAuthEngine()
		if err != nil {
			return err
		}
		if err := walletManager.Connect(command.Context()); err != nil {
			return errors.Wrap(err, "connect wallet")
		}

		s, err := engine.AuthenticateWallet(command.Context(), authBio, intent)
		if err != nil {
			return err
		}
		fmt.Printf("Authenticated as %s (wallet %s)\n", s.UserID, s.WalletAddress)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Destroy the stored session and disconnect the wallet",
	RunE: func(_ *cobra.Command, _ []string) error {
		engine, _, err := buildAuthEngine()
		if err != nil {
			return err
		}
		if err := engine.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

// buildAuthEngine wires the engine from environment configuration. Shared
// by every subcommand that needs an authenticated session.
func buildAuthEngine() (*auth.Engine, *wallet.ConnectionManager, error) {
	hexKey := os.Getenv("WALLET_PRIVATE_KEY")
	if hexKey == "" {
		return nil, nil, errors.New("WALLET_PRIVATE_KEY is required")
	}
	signer, err := wallet.NewLocalSigner(hexKey, cfg.GetDefaultChainID())
	if err != nil {
		return nil, nil, err
	}
	walletManager, err := wallet.NewConnectionManager(signer, wallet.WithSignatureTimeout(cfg.GetSignatureTimeout()))
	if err != nil {
		return nil, nil, err
	}

	client := backendapi.NewClient(cfg.GetBackendBaseURL())
	sessions := session.NewFileRepo(cfg.GetSessionFile())

	engine, err := auth.NewEngine(client, walletManager, sessions,
		auth.WithStabilisationDelay(cfg.GetLinkStabilisationDelay()))
	if err != nil {
		return nil, nil, err
	}
	return engine, walletManager, nil
}

func init() {
	authCmd.Flags().StringVar(&authBio, "bio", "", "Profile bio used when registering a new account")
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(logoutCmd)
}
