package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthire/agenthire-go/internal/types"
)

var hireCmd = &cobra.Command{
	Use:   "hire",
	Short: "Hire a service and drive the job to settlement",
	Long: `Create an escrow-backed job on a service, wait for the provider's
result, confirm completion to release payment, and optionally rate the
work. With --no-wait only the job is created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceID, _ := cmd.Flags().GetUint64("service")
		task, _ := cmd.Flags().GetString("task")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		stars, _ := cmd.Flags().GetUint8("stars")
		noWait, _ := cmd.Flags().GetBool("no-wait")

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		ctx := context.Background()
		jobID, err := ah.Jobs.Hire(ctx, serviceID, task)
		if err != nil {
			return err
		}
		fmt.Printf("Job #%d created, payment locked in escrow\n", jobID)
		if noWait {
			fmt.Printf("Check later with: agenthire status --job-id %d\n", jobID)
			return nil
		}

		fmt.Println("Waiting for result...")
		job, err := ah.Jobs.AwaitResult(ctx, jobID, timeout)
		if err != nil {
			fmt.Printf("Check status with: agenthire status --job-id %d\n", jobID)
			return err
		}
		if job.Status == types.JobStatusCancelled {
			fmt.Println("Job was cancelled, no payment made")
			return nil
		}

		fmt.Printf("Result received:\n%s\n", job.Result)

		if err := ah.Jobs.ConfirmComplete(ctx, jobID); err != nil {
			return err
		}
		fmt.Printf("Payment of %s %s released to provider\n", job.Amount, cfg.Chain.Denom)

		if stars > 0 {
			if err := ah.Jobs.Rate(ctx, jobID, stars); err != nil {
				return err
			}
			fmt.Printf("Rated %d/5 stars\n", stars)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show one job by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, _ := cmd.Flags().GetUint64("job-id")

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		job, err := ah.Gateway().GetJob(context.Background(), jobID)
		if err != nil {
			return err
		}

		fmt.Printf("Job #%d\n", job.ID)
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Status:   %s\n", job.Status)
		fmt.Printf("Service:  #%d\n", job.ServiceID)
		fmt.Printf("Consumer: %s\n", job.Consumer)
		fmt.Printf("Provider: %s\n", job.Provider)
		fmt.Printf("Amount:   %s %s\n", job.Amount, cfg.Chain.Denom)
		fmt.Printf("Task:     %s\n", job.TaskDescription)
		if job.Result != "" {
			fmt.Printf("Result:   %s\n", job.Result)
		}
		if job.Rated() {
			fmt.Printf("Rating:   %d/5\n", job.Rating)
		}
		return nil
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm a submitted result and release the escrow",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, _ := cmd.Flags().GetUint64("job-id")

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		if err := ah.Jobs.ConfirmComplete(context.Background(), jobID); err != nil {
			return err
		}
		fmt.Printf("Job #%d confirmed, payment released\n", jobID)
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Rate a completed job 1-5 stars",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, _ := cmd.Flags().GetUint64("job-id")
		stars, _ := cmd.Flags().GetUint8("stars")

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		if err := ah.Jobs.Rate(context.Background(), jobID, stars); err != nil {
			return err
		}
		fmt.Printf("Job #%d rated %d/5\n", jobID, stars)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a job and reclaim the escrowed funds",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, _ := cmd.Flags().GetUint64("job-id")

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		if err := ah.Jobs.Cancel(context.Background(), jobID); err != nil {
			return err
		}
		fmt.Printf("Job #%d cancelled\n", jobID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hireCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(cancelCmd)

	hireCmd.Flags().Uint64("service", 0, "service id (required)")
	hireCmd.Flags().String("task", "", "task description (required)")
	hireCmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for the result")
	hireCmd.Flags().Uint8("stars", 5, "rating to leave after completion, 0 to skip")
	hireCmd.Flags().Bool("no-wait", false, "only create the job, do not wait for the result")
	hireCmd.MarkFlagRequired("service")
	hireCmd.MarkFlagRequired("task")

	for _, c := range []*cobra.Command{statusCmd, confirmCmd, rateCmd, cancelCmd} {
		c.Flags().Uint64("job-id", 0, "job id (required)")
		c.MarkFlagRequired("job-id")
	}
	rateCmd.Flags().Uint8("stars", 0, "stars 1-5 (required)")
	rateCmd.MarkFlagRequired("stars")
}
