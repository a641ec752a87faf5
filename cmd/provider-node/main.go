package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cosmossdk.io/math"
	"github.com/joho/godotenv"

	"github.com/agenthire/agenthire-go/internal/types"
	"github.com/agenthire/agenthire-go/pkg/client"
	"github.com/agenthire/agenthire-go/pkg/utils"
)

func main() {
	var (
		keyName     = flag.String("key", "", "Signing key name (required)")
		name        = flag.String("name", "", "Service name (overrides config)")
		description = flag.String("description", "", "Service description (overrides config)")
		tags        = flag.String("tags", "", "Comma-separated tags (overrides config)")
		price       = flag.String("price", "", "Price per job in minor units (overrides config)")
		register    = flag.Bool("register", false, "Register the service before listening")
	)

	_ = godotenv.Load()
	flag.Parse()

	if *keyName == "" {
		fmt.Println("Usage:")
		fmt.Println("  provider-node --key <name> [--register --name <svc> --tags <t1,t2> --price <amount>]")
		os.Exit(1)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}
	cfg.Client.KeyName = *keyName
	if *name != "" {
		cfg.Provider.Name = *name
	}
	if *description != "" {
		cfg.Provider.Description = *description
	}
	if *tags != "" {
		cfg.Provider.Tags = strings.Split(*tags, ",")
	}
	if *price != "" {
		cfg.Provider.PricePerJob = *price
	}

	ah, err := client.New(cfg)
	if err != nil {
		log.Fatalf("Client init failed: %v", err)
	}
	defer ah.Close()

	node, err := ah.ProviderNode()
	if err != nil {
		log.Fatalf("Provider node init failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *register {
		priceInt, ok := math.NewIntFromString(cfg.Provider.PricePerJob)
		if !ok {
			log.Fatalf("Invalid price: %q", cfg.Provider.PricePerJob)
		}
		serviceID, err := node.Register(ctx, types.ServiceConfig{
			Name:        cfg.Provider.Name,
			Description: cfg.Provider.Description,
			Tags:        cfg.Provider.Tags,
			PricePerJob: priceInt,
		})
		if err != nil {
			log.Fatalf("Registration failed: %v", err)
		}
		log.Printf("Registered as service #%d", serviceID)
	}

	log.Printf("Provider node started")
	log.Printf("  Service: %s", cfg.Provider.Name)
	log.Printf("  Address: %s", ah.Address())

	if err := node.Listen(ctx, echoHandler); err != nil {
		log.Fatalf("Node failed: %v", err)
	}
	log.Printf("Provider node stopped")
}

// echoHandler is the demo task executor: it acknowledges the task with a
// structured result. Real providers plug their own Handler in here.
func echoHandler(ctx context.Context, job types.Job) (string, error) {
	// Simulate a short unit of work.
	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	result, err := json.Marshal(map[string]any{
		"success":   true,
		"job_id":    job.ID,
		"task":      job.TaskDescription,
		"output":    fmt.Sprintf("task acknowledged by %s", job.Provider),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return string(result), nil
}
