package main

import (
	"context"
	"fmt"
	"strings"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/agenthire/agenthire-go/internal/types"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Search the marketplace for active services",
	RunE: func(cmd *cobra.Command, args []string) error {
		tagsFlag, _ := cmd.Flags().GetString("tags")
		maxPrice, _ := cmd.Flags().GetString("max-price")
		sortBy, _ := cmd.Flags().GetString("sort")

		opts := types.FindOptions{SortBy: types.SortOrder(sortBy)}
		if tagsFlag != "" {
			opts.Tags = splitTags(tagsFlag)
		}
		if maxPrice != "" {
			max, ok := math.NewIntFromString(maxPrice)
			if !ok {
				return fmt.Errorf("invalid max-price %q", maxPrice)
			}
			opts.MaxPrice = &max
		}

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		services, err := ah.Marketplace.Find(context.Background(), opts)
		if err != nil {
			return err
		}
		if len(services) == 0 {
			fmt.Println("No services found")
			return nil
		}

		fmt.Printf("Found %d service(s)\n", len(services))
		fmt.Println(strings.Repeat("=", 72))
		for _, s := range services {
			printService(s)
		}
		return nil
	},
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Show one service by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetUint64("id")

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		svc, err := ah.Gateway().GetService(context.Background(), id)
		if err != nil {
			return err
		}
		printService(*svc)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Marketplace-wide statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		stats, err := ah.Marketplace.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Println("AgentHire Marketplace")
		fmt.Println(strings.Repeat("=", 40))
		fmt.Printf("Services:        %d (%d active)\n", stats.Services, stats.ActiveServices)
		fmt.Printf("Jobs completed:  %d\n", stats.TotalJobs)
		fmt.Printf("Rated services:  %d\n", stats.RatedServices)
		fmt.Printf("Mean rating:     %.2f (stddev %.2f)\n", stats.MeanRating, stats.RatingStdDev)
		fmt.Printf("Mean price:      %.0f %s\n", stats.MeanPrice, cfg.Chain.Denom)
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List all jobs on the escrow",
	RunE: func(cmd *cobra.Command, args []string) error {
		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		jobs, err := ah.Marketplace.AllJobs(context.Background())
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs yet")
			return nil
		}
		for _, j := range jobs {
			rating := "-"
			if j.Rated() {
				rating = fmt.Sprintf("%d/5", j.Rating)
			}
			fmt.Printf("#%-5d service=%-4d status=%-9s rating=%-4s consumer=%s\n",
				j.ID, j.ServiceID, j.Status, rating, j.Consumer)
		}
		return nil
	},
}

func printService(s types.Service) {
	status := "active"
	if !s.Active {
		status = "inactive"
	}
	fmt.Printf("\n#%d %s (%s)\n", s.ID, s.Name, status)
	fmt.Printf("   Provider: %s\n", s.Provider)
	if s.Description != "" {
		fmt.Printf("   %s\n", s.Description)
	}
	fmt.Printf("   Tags: %s\n", strings.Join(s.Tags, ", "))
	fmt.Printf("   Price: %s %s | Jobs: %d | Rating: %.1f (%d ratings)\n",
		s.PricePerJob, cfg.Chain.Denom, s.TotalJobs, s.AvgRating(), s.RatingCount)
}

func splitTags(csv string) []string {
	var tags []string
	for _, tag := range strings.Split(csv, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func init() {
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(jobsCmd)

	findCmd.Flags().String("tags", "", "comma-separated tags (union match)")
	findCmd.Flags().String("max-price", "", "maximum price per job in minor units")
	findCmd.Flags().String("sort", "rating", "sort order: rating, price or volume")

	serviceCmd.Flags().Uint64("id", 0, "service id (required)")
	serviceCmd.MarkFlagRequired("id")
}
