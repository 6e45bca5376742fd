package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"upcagent/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Serve the agent over HTTP: chat, simulated streaming, direct knowledge-base queries, capability listing and a health check.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		rt, err := buildRuntime(ctx)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer rt.close()

		handler := server.New(rt.agent, rt.kb, rt.registry, rt.logger)
		rt.logger.Info("http server listening",
			zap.String("addr", serveAddr),
			zap.Int("kb_chunks", rt.kb.Len()))

		if err := http.ListenAndServe(serveAddr, handler); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address")
	rootCmd.AddCommand(serveCmd)
}
