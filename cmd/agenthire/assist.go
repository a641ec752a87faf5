package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthire/agenthire-go/internal/types"
	"github.com/agenthire/agenthire-go/pkg/client"
)

// assistCmd is an interactive consumer loop: type a task, the client picks
// the best-rated matching service, hires it and settles the job. One failed
// job prints a one-line diagnosis and returns to the prompt.
var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Interactive assistant: type tasks, hire agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		tagsFlag, _ := cmd.Flags().GetString("tags")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		tags := splitTags(tagsFlag)

		ah, err := newClient()
		if err != nil {
			return err
		}
		defer ah.Close()

		if ah.ReadOnly() {
			return fmt.Errorf("assist needs a signing key: set client.key_name or pass --from")
		}

		fmt.Printf("[Assistant] Address: %s\n", ah.Address())
		fmt.Println("[Assistant] Ready. Type a task, or 'quit' to exit.")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("You: ")
			if !scanner.Scan() {
				break
			}
			task := strings.TrimSpace(scanner.Text())
			if task == "" || strings.EqualFold(task, "quit") {
				break
			}
			runAssistTask(ah, tags, task, timeout)
		}
		fmt.Println("[Assistant] Goodbye!")
		return scanner.Err()
	},
}

func runAssistTask(ah *client.AgentHire, tags []string, task string, timeout time.Duration) {
	ctx := context.Background()

	fmt.Println("[Assistant] Searching marketplace...")
	services, err := ah.Marketplace.Find(ctx, types.FindOptions{Tags: tags, SortBy: types.SortByRating})
	if err != nil {
		fmt.Printf("[Assistant] Error: %v\n", err)
		return
	}
	if len(services) == 0 {
		fmt.Println("[Assistant] No agents found for this task. Try again later.")
		return
	}

	best := services[0]
	fmt.Printf("[Assistant] Found: %s (rating %.1f, price %s %s)\n",
		best.Name, best.AvgRating(), best.PricePerJob, cfg.Chain.Denom)

	job, err := ah.Jobs.Run(ctx, best.ID, task, timeout, 5)
	if err != nil {
		fmt.Printf("[Assistant] Error: %v\n", err)
		return
	}
	if job.Status == types.JobStatusCancelled {
		fmt.Println("[Assistant] Job was cancelled, no payment made.")
		return
	}
	fmt.Printf("[Assistant] Result: %s\n", job.Result)
	fmt.Println("[Assistant] Payment released and job rated. Task complete!")
}

func init() {
	rootCmd.AddCommand(assistCmd)

	assistCmd.Flags().String("tags", "", "comma-separated tags used to pick an agent")
	assistCmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for each result")
}
