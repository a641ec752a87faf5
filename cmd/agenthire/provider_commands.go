package main

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/agenthire/agenthire-go/internal/types"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a service on the marketplace",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		tagsFlag, _ := cmd.Flags().GetString("tags")
		priceFlag, _ := cmd.Flags().GetString("price")

		price, ok := math.NewIntFromString(priceFlag)
		if !ok {
			return fmt.Errorf("invalid price %q", priceFlag)
		}

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		node, err := ah.ProviderNode()
		if err != nil {
			return err
		}
		serviceID, err := node.Register(context.Background(), types.ServiceConfig{
			Name:        name,
			Description: description,
			Tags:        splitTags(tagsFlag),
			PricePerJob: price,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Registered as service #%d\n", serviceID)
		return nil
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Deactivate one of your services",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetUint64("id")

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		if _, err := ah.Gateway().DeactivateService(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("Service #%d deactivated\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(deactivateCmd)

	registerCmd.Flags().String("name", "", "service name (required)")
	registerCmd.Flags().String("description", "", "service description")
	registerCmd.Flags().String("tags", "", "comma-separated discovery tags (required)")
	registerCmd.Flags().String("price", "", "price per job in minor units (required)")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("tags")
	registerCmd.MarkFlagRequired("price")

	deactivateCmd.Flags().Uint64("id", 0, "service id (required)")
	deactivateCmd.MarkFlagRequired("id")
}
