package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"upcagent/internal/llm"
)

var rootCmd = &cobra.Command{
	Use:   "upcagent",
	Short: "Conversational UPC product assistant",
	Long:  `upcagent answers questions about food products: it extracts UPC codes from free-form text, validates and repairs them, and researches products across a local knowledge base, USDA FoodData Central and the web.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runChat(cmd.Context()); err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

// runChat is the interactive loop: one session id for the whole sitting,
// one agent invocation per line of input.
func runChat(ctx context.Context) error {
	rt, err := buildRuntime(ctx)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			fmt.Println("No API key configured. Run 'upcagent profile add' or set OPENAI_API_KEY.")
			return nil
		}
		return err
	}
	defer rt.close()

	sessionID := uuid.NewString()
	fmt.Println("UPC product assistant. Ask about a product or paste a UPC. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		answer, err := rt.agent.Invoke(ctx, line, sessionID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
	return scanner.Err()
}
