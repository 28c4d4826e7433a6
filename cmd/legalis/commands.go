package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/ericksa/legalis/internal/audit"
	"github.com/ericksa/legalis/internal/extract"
	"github.com/ericksa/legalis/internal/history"
	"github.com/ericksa/legalis/internal/llm"
	"github.com/ericksa/legalis/internal/risk"
	"github.com/ericksa/legalis/internal/templates"
	"github.com/ericksa/legalis/pkg/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (a *app) scoreCmd() *cobra.Command {
	var category, file string
	cmd := &cobra.Command{
		Use:   "score [clause text]",
		Short: "Score a single clause from 1 to 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if text, err = extract.Text(file, data); err != nil {
					return err
				}
			}
			return a.print(cmd.OutOrStdout(), map[string]any{
				"score":           risk.Evaluate(text, category),
				"category":        category,
				"category_weight": risk.CategoryWeight(category),
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "clause category, e.g. Penalty or Arbitration")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read clause text from a file")
	return cmd
}

func (a *app) compositeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "composite [score...]",
		Short: "Aggregate clause scores into a composite risk score and level",
		RunE: func(cmd *cobra.Command, args []string) error {
			scores := make([]int, 0, len(args))
			for _, arg := range args {
				s, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid score %q: %w", arg, err)
				}
				scores = append(scores, s)
			}
			if err := risk.ValidateScores(scores); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), risk.Aggregate(scores))
		},
	}
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		typeHint string
		save     bool
		risky    bool
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Analyze contracts with the configured model and score every clause",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if !cfg.LLM.Configured() {
				return analysis.ErrNotConfigured
			}
			client, err := llm.NewOpenAIClient(llm.Config{
				Endpoint:    cfg.LLM.Endpoint,
				Model:       cfg.LLM.Model,
				APIKey:      cfg.LLM.APIKey,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
				Timeout:     cfg.LLM.Timeout,
			}, a.logger)
			if err != nil {
				return err
			}
			analyzer := analysis.New(client, analysis.WithMaxChars(cfg.LLM.MaxChars), analysis.WithLogger(a.logger))

			results := make([]*analysis.Result, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(1, parallel))
			for i, path := range args {
				g.Go(func() error {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					text, err := extract.Text(path, data)
					if err != nil {
						return err
					}
					res, err := analyzer.Analyze(ctx, text, typeHint)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if cfg.History.Enabled {
				store, err := history.Open(cmd.Context(), cfg.History.Driver, cfg.History.DSN)
				if err != nil {
					a.logger.Warn("failed to open history store", "error", err)
				} else {
					defer store.Close()
					for _, res := range results {
						if err := store.Save(cmd.Context(), res); err != nil {
							a.logger.Warn("failed to store analysis", "id", res.ID, "error", err)
						}
					}
				}
			}

			if save {
				ledger, err := audit.OpenLedger(cfg.Audit.LedgerPath)
				if err != nil {
					return err
				}
				defer ledger.Close()
				for _, res := range results {
					entry := audit.Entry{Score: res.RiskMetadata.Score, Summary: res.Summary}
					if err := ledger.Append(cmd.Context(), entry); err != nil {
						return err
					}
				}
			}

			if risky {
				for i, res := range results {
					filtered := *res
					filtered.Clauses = analysis.RiskyClauses(res)
					results[i] = &filtered
				}
			}
			if len(results) == 1 {
				return a.print(cmd.OutOrStdout(), results[0])
			}
			return a.print(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&typeHint, "type", "t", analysis.DefaultTypeHint, "contract type hint, e.g. Employment or Lease")
	cmd.Flags().BoolVar(&save, "save", false, "append each result to the audit log")
	cmd.Flags().BoolVar(&risky, "risky", false, "only print high and medium risk clauses")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "number of contracts analyzed at once")
	return cmd
}

func (a *app) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read and append the NDJSON audit log",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			entries, err := audit.ReadFile(cfg.Audit.LedgerPath)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			if entries == nil {
				entries = []audit.Entry{}
			}
			return a.print(cmd.OutOrStdout(), entries)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries, 0 for all")

	var (
		score   float64
		summary string
	)
	save := &cobra.Command{
		Use:   "save",
		Short: "Append a score and summary to the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("score") {
				return errors.New("--score is required")
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			ledger, err := audit.OpenLedger(cfg.Audit.LedgerPath)
			if err != nil {
				return err
			}
			defer ledger.Close()
			entry := audit.Entry{Score: score, Summary: summary}
			if err := ledger.Append(cmd.Context(), entry); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{"success": true, "path": ledger.Path()})
		},
	}
	save.Flags().Float64Var(&score, "score", 0, "composite score to record")
	save.Flags().StringVar(&summary, "summary", "", "contract summary to record")

	cmd.AddCommand(list, save)
	return cmd
}

func (a *app) templateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [name]",
		Short: "Print a contract template, or list template names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.print(cmd.OutOrStdout(), map[string]any{"templates": templates.Names()})
			}
			t, err := templates.Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Body)
			return err
		},
	}
}

func (a *app) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract plain text from a .txt, .md, .html, .docx or .pdf contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			text, err := extract.Text(args[0], data)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{
				"text":     extract.Clean(text),
				"language": extract.DetectLanguage(text),
			})
		},
	}
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the contract tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			h, err := mcp.NewHandler(cmd.Context(), cfg, a.logger)
			if err != nil {
				return err
			}
			defer h.Close()
			return h.Server().Run(cmd.Context(), &sdk.StdioTransport{})
		},
	}
}
