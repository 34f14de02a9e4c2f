// cmd/form-demo/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"form-pipeline/internal/common/config"
	"form-pipeline/internal/common/countries"
	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/common/pipeline"
	"form-pipeline/internal/common/validation"
)

var (
	configFile  string
	dumpMetrics bool
)

// errSubmitFailed makes the process exit non-zero when any payload was
// rejected, after everything has been printed.
var errSubmitFailed = errors.New("one or more submissions were rejected")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(os.Stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "form-demo: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form-demo",
		Short: "Run form submissions through the validation pipeline",
		Long: `form-demo feeds JSON submission documents through either form variant,
prints field errors or the resulting submission listing, and exposes the
password strength meter and country suggestions used by the forms.`,
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (defaults to configs/config.yaml when present)")
	cmd.PersistentFlags().BoolVar(&dumpMetrics, "metrics", false, "Print collected metrics in Prometheus text format on exit")
	cmd.AddCommand(
		newSubmitCmd(),
		newSuggestCmd(),
		newStrengthCmd(),
	)
	return cmd
}

func newSubmitCmd() *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "submit payload.json [payload.json...]",
		Short: "Submit one or more documents through a form variant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formType, err := parseVariant(variant)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
			defer zapLog.Sync()
			log := logger.NewZapAdapter(zapLog)

			ctx := cmd.Context()
			s, err := newSession(cfg, log)
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			out := cmd.OutOrStdout()
			rejected := false
			for _, path := range args {
				doc, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read payload: %w", err)
				}
				res, err := s.submit(ctx, formType, doc, filepath.Dir(path))
				if err != nil {
					zapLog.Warn("payload skipped", zap.String("path", path), zap.Error(err))
					fmt.Fprintf(out, "%s: %v\n", path, err)
					rejected = true
					continue
				}
				printResult(out, path, res)
				if res.Outcome != pipeline.OutcomeSuccess {
					rejected = true
				}
			}

			fmt.Fprintln(out)
			printListing(out, s.store.Snapshot())

			if dumpMetrics {
				fmt.Fprintln(out)
				if err := s.metrics.WriteText(out); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			if rejected {
				return errSubmitFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "hook", "Form variant: uncontrolled or hook")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <query>",
		Short: "List countries containing the query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			index := countries.Default()
			if cfg.Forms.CountriesFile != "" {
				if index, err = countries.LoadFile(cfg.Forms.CountriesFile); err != nil {
					return err
				}
			}
			for _, c := range index.Suggest(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func newStrengthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strength <password>",
		Short: "Score a password the way the strength meter does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score := validation.PasswordStrength(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d %s\n", score, validation.MaxStrength, validation.StrengthLabel(score))
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.Load()
}
