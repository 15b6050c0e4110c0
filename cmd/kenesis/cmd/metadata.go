package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
	"github.com/kenesis-labs/kenesis-engine/ipfs"
	"github.com/kenesis-labs/kenesis-engine/nftmeta"
)

var (
	metadataToken string
	metadataOwner string
	metadataPin   bool
	metadataSite  string
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <courseID>",
	Short: "Build (and optionally pin) the purchase NFT metadata for a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		client := backendapi.NewClient(cfg.GetBackendBaseURL())
		course, err := client.GetCourse(command.Context(), args[0])
		if err != nil {
			return err
		}
		token, err := chain.GetToken(metadataToken)
		if err != nil {
			return err
		}

		builder := nftmeta.NewBuilder(metadataSite)

		if metadataPin {
			pinner := ipfs.NewClient(cfg.GetPinningBaseURL(), cfg.GetPinningJWT())
			pipeline, err := nftmeta.NewPipeline(pinner, builder)
			if err != nil {
				return err
			}
			uri, err := pipeline.CreateCourseNFT(command.Context(), course, token, metadataOwner)
			if err != nil {
				return err
			}
			fmt.Println(uri)
			return nil
		}

		md, err := builder.Build(course, token, metadataOwner, "ipfs://<thumbnail>")
		if err != nil {
			return err
		}
		if err := nftmeta.Validate(md); err != nil {
			return err
		}
		out, err := json.MarshalIndent(md, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	metadataCmd.Flags().StringVar(&metadataToken, "token", "USDT-137", "Payment token key (SYMBOL-chainID)")
	metadataCmd.Flags().StringVar(&metadataOwner, "owner", "", "Purchaser wallet address")
	metadataCmd.Flags().BoolVar(&metadataPin, "pin", false, "Upload thumbnail and metadata to the pinning service")
	metadataCmd.Flags().StringVar(&metadataSite, "site", "https://kenesis.io", "Marketplace site URL for external_url")
	rootCmd.AddCommand(metadataCmd)
}
