package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/callvia/callvia/pkg/sdk"
	"github.com/callvia/callvia/pkg/utils"
)

// Interactive call simulator: starts a session against a running API and
// exchanges turns from the terminal. Type /end to hang up.
func main() {
	// Find env file
	envFile := ".env"
	if os.Getenv("ENV_FILE") != "" {
		envFile = os.Getenv("ENV_FILE")
	}

	// Load global config
	cfg := utils.NewConfigFromEnv(envFile)

	backendURL := cfg.Get("BACKEND_BASE_URL")
	if backendURL == "" {
		log.Fatal("[COMMANDLINE]: BACKEND_BASE_URL not set in config or environment")
	}

	client := sdk.NewClient(backendURL, cfg.Get("BACKEND_API_KEY"))

	destination := cfg.GetWithDefault("SIMULATOR_DESTINATION_NUMBER", "+1-800-1000")
	origin := cfg.GetWithDefault("SIMULATOR_ORIGIN_NUMBER", "+1-555-0000")

	ctx := context.Background()
	if err := runCall(ctx, client, destination, origin); err != nil {
		log.Fatalf("[COMMANDLINE]: %v", err)
	}
}

// runCall drives one simulated call from stdin
func runCall(ctx context.Context, client *sdk.Client, destination, origin string) error {
	started, err := client.StartCall(ctx, destination, origin)
	if err != nil {
		return fmt.Errorf("failed to start call: %w", err)
	}

	fmt.Printf("Call %s connected.\n", started.SessionID)
	fmt.Printf("System: %s\n", started.Greeting)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if text == "/end" {
			ended, err := client.EndCall(ctx, started.SessionID, "caller hung up")
			if err != nil {
				return fmt.Errorf("failed to end call: %w", err)
			}
			fmt.Printf("System: %s\n", ended.FinalMessage)
			fmt.Printf("Call lasted %d seconds.\n", ended.DurationSeconds)
			return nil
		}

		turn, err := client.PostTurn(ctx, started.SessionID, text)
		if err != nil {
			return fmt.Errorf("failed to post turn: %w", err)
		}

		fmt.Printf("System: %s\n", turn.Reply)
		if turn.RemainingSeconds < 60 {
			fmt.Printf("(%d seconds remaining)\n", turn.RemainingSeconds)
		}
	}

	return scanner.Err()
}
