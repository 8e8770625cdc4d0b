package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lexchain/internal/integrity/extract"
	"lexchain/internal/risk/models"
)

func storeCmd(f *globalFlags) *cobra.Command {
	var filename string
	cmd := &cobra.Command{
		Use:   "store <file|->",
		Short: "Anchor an integrity proof for a document",
		Long: `Extracts the document text, fingerprints it and submits the fingerprint
to the ledger. Refused in demo mode; never retried.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.build(cmd)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck // nothing to flush

			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if filename == "" && args[0] != "-" {
				filename = filepath.Base(args[0])
			}
			text, err := extract.PlainText{}.Extract(cmd.Context(), bytes.NewReader(raw), filename)
			if err != nil {
				return err
			}
			proof, err := p.Integrity.StoreProof(cmd.Context(), text, filename)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proof)
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "Filename recorded with the proof (default: base name of the file)")
	return cmd
}

func verifyCmd(f *globalFlags) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "verify [--text TEXT | <file|->]",
		Short: "Check whether a proof exists for a document",
		Long: `Verifies --text exactly as given. A file or stdin is extracted the same
way store extracts it, so storing and verifying the same file match.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case text != "" && len(args) > 0:
				return errors.New("pass either --text or a file, not both")
			case text == "" && len(args) == 0:
				return errors.New("nothing to verify: pass --text or a file")
			case text == "":
				// Files and stdin go through the same extraction as store.
				raw, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				text, err = extract.PlainText{}.Extract(cmd.Context(), bytes.NewReader(raw), filepath.Base(args[0]))
				if err != nil {
					return err
				}
			}

			p, err := f.build(cmd)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck // nothing to flush

			result, err := p.Integrity.VerifyProof(cmd.Context(), text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Exact text to verify, not extracted")
	return cmd
}

func verifyFileCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-file <file>",
		Short: "Extract a document's text and verify it against the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.build(cmd)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck // nothing to flush

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			result, err := p.Integrity.VerifyFile(cmd.Context(), file, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func historyCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your integrity proofs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := f.build(cmd)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck // nothing to flush

			entries, err := p.Integrity.ListHistory(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
}

func evaluateCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <file|->",
		Short: "Score a contract with the rule engine and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			p, err := f.build(cmd)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck // nothing to flush

			eval, err := p.Risk.Evaluate(cmd.Context(), string(raw))
			if err != nil {
				return err
			}
			if eval.Synthetic {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: rule engine unavailable, showing the sample report")
			}
			return printJSON(cmd.OutOrStdout(), eval)
		},
	}
}

func classifyCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <report.json|->",
		Short: "Classify a saved rule-engine report without contacting any backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var report models.RuleEngineReport
			if err := json.Unmarshal(raw, &report); err != nil {
				return fmt.Errorf("decode report: %w", err)
			}

			p, err := f.build(cmd)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck // nothing to flush

			return printJSON(cmd.OutOrStdout(), p.Risk.Classify(cmd.Context(), report))
		},
	}
}

type modeOutput struct {
	Mode      string `json:"mode"`
	Reachable bool   `json:"reachable"`
	LatencyMS int64  `json:"latency_ms"`
}

func modeCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mode",
		Short: "Probe the ledger once and print the resulting operating mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := f.build(cmd)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck // nothing to flush

			if f.demo {
				return printJSON(cmd.OutOrStdout(), modeOutput{Mode: p.Mode.Mode().String()})
			}
			result := p.Monitor.Probe(cmd.Context())
			if !result.Reachable {
				p.Mode.Degrade("ledger health probe failed")
			}
			return printJSON(cmd.OutOrStdout(), modeOutput{
				Mode:      p.Mode.Mode().String(),
				Reachable: result.Reachable,
				LatencyMS: result.Latency.Milliseconds(),
			})
		},
	}
}
