package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		rt, err := buildRuntime(ctx)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer rt.close()

		question := strings.Join(args, " ")
		answer, err := rt.agent.Invoke(ctx, question, uuid.NewString())
		if err != nil {
			log.Fatalf("Request failed: %v", err)
		}
		fmt.Println(answer)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
