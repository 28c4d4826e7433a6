package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericksa/legalis/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds the flags shared by every command.
type app struct {
	configPath string
	output     string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "legalis",
		Short: "Score contract clauses and keep an audit trail of contract risk",
		Long: `legalis scores contract clauses by keyword severity, aggregates them into a
composite risk level, analyzes whole contracts with an OpenAI compatible model
and appends saved results to an NDJSON audit log.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.output != "json" && a.output != "yaml" {
				return fmt.Errorf("unsupported output format %q (json or yaml)", a.output)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./config.yaml or $HOME/.legalis/config.yaml)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "output format: json or yaml")

	root.AddCommand(
		a.scoreCmd(),
		a.compositeCmd(),
		a.analyzeCmd(),
		a.auditCmd(),
		a.templateCmd(),
		a.extractCmd(),
		a.mcpCmd(),
	)
	return root
}

// config loads and validates configuration once per process.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.LoadFrom(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	a.logger = config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(a.logger)
	return cfg, nil
}

// print renders v in the selected output format. YAML keys follow the JSON
// field names.
func (a *app) print(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if a.output == "yaml" {
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
