package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
)

var quoteToken string

var quoteCmd = &cobra.Command{
	Use:   "quote <courseID>",
	Short: "Show the token amount owed for a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		client := backendapi.NewClient(cfg.GetBackendBaseURL())
		course, err := client.GetCourse(command.Context(), args[0])
		if err != nil {
			return err
		}

		quoter := chain.NewQuoter(nil) // local stable-rate conversion
		amount, token, err := quoter.Quote(command.Context(), course.ID, course.Price, quoteToken)
		if err != nil {
			return err
		}
		network, _ := chain.GetNetwork(token.ChainID)
		fmt.Printf("%s (%.2f USD) = %s %s base units on %s\n",
			course.Title, course.Price, amount.String(), token.Symbol, network.Name)
		return nil
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteToken, "token", "USDT-137", "Payment token key (SYMBOL-chainID)")
	rootCmd.AddCommand(quoteCmd)
}
