package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"regdash/adapters/excel"
	"regdash/adapters/llm"
	"regdash/adapters/synth"
	"regdash/domain/insight"
	"regdash/domain/regression"
	"regdash/internal/config"
	"regdash/internal/container"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "regdash",
		Short:         "Regression dashboard with mock results and insight synthesis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSynthesizeCmd(),
		newInsightsCmd(),
		newExportCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// selectionFlags are the model configuration flags shared by synthesize and export
type selectionFlags struct {
	kind            string
	dependent       string
	independent     []string
	catalogPath     string
	seed            uint64
	consistentTiers bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "linear", "Model kind: linear, logistic or polynomial")
	cmd.Flags().StringVarP(&f.dependent, "dependent", "y", "", "Dependent variable")
	cmd.Flags().StringSliceVarP(&f.independent, "independent", "x", nil, "Independent variables, in order")
	cmd.Flags().StringVar(&f.catalogPath, "catalog", os.Getenv("VARIABLE_CATALOG"), "YAML variable catalog (default built-in)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random seed for reproducible results (0 picks one)")
	cmd.Flags().BoolVar(&f.consistentTiers, "consistent-tiers", false, "Derive significance from the p-value instead of independent draws")
	_ = cmd.MarkFlagRequired("dependent")
}

// configuration builds and validates the model configuration through the same
// operations the selection step uses
func (f *selectionFlags) configuration() (regression.ModelConfiguration, error) {
	catalog, err := config.LoadCatalog(f.catalogPath)
	if err != nil {
		return regression.ModelConfiguration{}, err
	}

	kind, err := regression.ParseModelKind(f.kind)
	if err != nil {
		return regression.ModelConfiguration{}, err
	}

	cfg := regression.NewModelConfiguration()
	cfg.SetKind(kind)
	cfg.SetDependent(f.dependent)
	for _, name := range f.independent {
		if !cfg.AddIndependent(name) {
			return cfg, fmt.Errorf("independent variable %q is a duplicate or the dependent variable", name)
		}
	}
	return cfg, cfg.ValidateAgainst(catalog)
}

func (f *selectionFlags) synthesize() (*regression.Result, error) {
	cfg, err := f.configuration()
	if err != nil {
		return nil, err
	}
	return synth.New(container.SynthOptions(config.SynthConfig{
		Seed:            f.seed,
		ConsistentTiers: f.consistentTiers,
	})...).Synthesize(cfg), nil
}

func newSynthesizeCmd() *cobra.Command {
	var sel selectionFlags
	var asJSON bool
	var decimals int

	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Generate a mock regression result for a variable selection",
		Long: `Generate a mock regression result and print the coefficient table.

Example: regdash synthesize -y GDP -x age,income,urban --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sel.synthesize()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			writeCoefficientTable(out, res, decimals)
			writeModelSummary(out, res)
			return nil
		},
	}

	sel.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().IntVar(&decimals, "decimals", excel.DefaultDecimals, "Decimal places in the table")

	return cmd
}

func newInsightsCmd() *cobra.Command {
	var summary insight.Summary
	var provider, model, remoteURL string
	var asJSON, narrative bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Generate insights for regression summary statistics",
		Long: `Generate the insight record for a set of summary statistics.

Example: regdash insights --r2 0.742 --adj-r2 0.738 --f-p 0 --significant 3 --total 5 --dependent GDP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, err := llm.NewGenerator(llm.Config{
				Provider:  provider,
				APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
				Model:     model,
				MaxTokens: llm.DefaultMaxTokens,
				BaseURL:   os.Getenv("ANTHROPIC_BASE_URL"),
				RemoteURL: remoteURL,
				Timeout:   llm.DefaultTimeout,
			})
			if err != nil {
				return err
			}

			rec, err := generator.Generate(cmd.Context(), insight.NewRequest(summary))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, rec)
			case narrative:
				fmt.Fprint(out, insight.Markdown(insight.Narrative(rec, summary.DependentVariable)))
			default:
				writeInsights(out, rec)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&summary.RSquared, "r2", 0, "R-squared")
	cmd.Flags().Float64Var(&summary.AdjustedRSquared, "adj-r2", 0, "Adjusted R-squared")
	cmd.Flags().Float64Var(&summary.FTestPValue, "f-p", 0, "F-test p-value")
	cmd.Flags().IntVar(&summary.SignificantVarCount, "significant", 0, "Number of significant predictors")
	cmd.Flags().IntVar(&summary.TotalVarCount, "total", 0, "Number of predictors")
	cmd.Flags().StringVar(&summary.DependentVariable, "dependent", "", "Dependent variable name")
	cmd.Flags().IntVar(&summary.SampleSize, "sample-size", 0, "Number of observations (0 if unknown)")
	cmd.Flags().StringVar(&provider, "provider", llm.ProviderTemplate, "Insight provider: template, anthropic or remote")
	cmd.Flags().StringVar(&model, "model", llm.DefaultModel, "Model for the anthropic provider")
	cmd.Flags().StringVar(&remoteURL, "remote-url", os.Getenv("INSIGHT_API_URL"), "Insight API base URL for the remote provider")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the insight record as JSON")
	cmd.Flags().BoolVar(&narrative, "narrative", false, "Print the narrative report as Markdown")

	return cmd
}

func newExportCmd() *cobra.Command {
	var sel selectionFlags
	var outPath, title, optionsPath string
	var decimals int
	var withInsights, noSignificance, noStats bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a mock regression result to an Excel workbook",
		Long: `Synthesize a result and save the coefficient table, model statistics
and optionally the template insights as an .xlsx workbook.

Example: regdash export -y GDP -x age,income --out results.xlsx --insights`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sel.synthesize()
			if err != nil {
				return err
			}

			var rec *insight.Record
			if withInsights {
				rec = insight.Synthesize(res.Summary())
			}

			opts := excel.DefaultTableOptions()
			opts.Title = title
			opts.Decimals = decimals
			opts.ShowSignificance = !noSignificance
			opts.IncludeModelStats = !noStats
			if optionsPath != "" {
				if opts, err = excel.LoadTableOptions(optionsPath, opts); err != nil {
					return err
				}
			}

			if err := excel.NewExporter(opts).Save(outPath, res, rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d coefficients to %s\n", len(res.Coefficients), outPath)
			return nil
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "regression_results.xlsx", "Output workbook path")
	cmd.Flags().StringVar(&title, "title", "Regression Results", "Table title (empty for none)")
	cmd.Flags().IntVar(&decimals, "decimals", excel.DefaultDecimals, "Decimal places (1-6)")
	cmd.Flags().BoolVar(&withInsights, "insights", false, "Include a sheet with template insights")
	cmd.Flags().BoolVar(&noSignificance, "no-significance", false, "Omit the significance column")
	cmd.Flags().BoolVar(&noStats, "no-stats", false, "Omit the model statistics sheet")
	cmd.Flags().StringVar(&optionsPath, "options", os.Getenv("EXPORT_OPTIONS"), "YAML table options applied over the flags")

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and the insight API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

// serve loads configuration from the environment and runs until SIGINT/SIGTERM
func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = c.Serve(ctx)
	log.Printf("regdash stopped after %v", time.Since(start).Round(time.Second))
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
