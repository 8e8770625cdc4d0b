// Package main provides lexctl, a command-line client for the verdict
// pipeline. It runs the pipeline in-process against the configured ledger and
// rule engine, so it degrades to demo results exactly like the server does.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lexchain/internal/pipeline"
	"lexchain/internal/platform/config"
	"lexchain/internal/platform/logger"
	"lexchain/pkg/platform/circuit"
	"lexchain/pkg/platform/middleware/auth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	demo       bool
	token      string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "lexctl",
		Short: "Contract integrity and risk verdict client",
		Long: `lexctl stores and verifies document integrity proofs and evaluates
contract risk from the command line.

Examples:
  lexctl store contract.txt           # anchor a proof for the document
  lexctl verify-file contract.txt     # check a document against the ledger
  lexctl history                      # list your proofs, newest first
  lexctl evaluate contract.txt        # score a contract with the rule engine
  lexctl classify report.json         # classify a saved rule-engine report
  lexctl --demo evaluate contract.txt # offline, using the sample report
`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("LEXCHAIN_CONFIG"), "Config file path (YAML)")
	cmd.PersistentFlags().BoolVar(&flags.demo, "demo", false, "Force demo mode; no backend is contacted")
	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "Bearer token forwarded to the backends (default LEXCHAIN_TOKEN)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		storeCmd(flags),
		verifyCmd(flags),
		verifyFileCmd(flags),
		historyCmd(flags),
		evaluateCmd(flags),
		classifyCmd(flags),
		modeCmd(flags),
	)
	return cmd
}

// build loads configuration and assembles an in-process pipeline.
func (f *globalFlags) build(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	token := f.token
	if token == "" {
		token = cfg.ServiceToken
	}
	// Background loops are not started, so the in-memory cache is enough.
	cfg.Redis.URL = ""

	log := logger.NewWithWriter(cmd.ErrOrStderr(), f.logLevel)
	p, err := pipeline.New(cmd.Context(), cfg, pipeline.Options{
		Logger: log,
		Tokens: auth.StaticTokenSource(token),
	})
	if err != nil {
		return nil, err
	}
	if f.demo {
		p.Mode.ForceMode(circuit.Demo, "--demo flag")
	}
	return p, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads a file path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
