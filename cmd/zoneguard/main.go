package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vigilsec/zoneguard/internal/collect"
	"github.com/vigilsec/zoneguard/internal/engine"
	"github.com/vigilsec/zoneguard/internal/output"
	"github.com/vigilsec/zoneguard/internal/rules"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	output.Version = version

	var (
		domainsFlag    string
		threads        int
		timeout        time.Duration
		rateLimit      int
		expiryCritical int
		expiryWarning  int
		resolver       string
		axfr           bool
		jsonOut        string
		pdfOut         string
		jsonStdout     bool
		noColor        bool
		silent         bool
		verbose        bool
	)

	rootCmd := &cobra.Command{
		Use:   "zoneguard",
		Short: "Scan domains for DNS and registration weaknesses",
		Long:  "Passive domain security scanning — DNS footprint and WHOIS registration checks, graded findings with remediation guidance.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Respect NO_COLOR env var.
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				noColor = true
			}

			logger := newLogger(verbose)
			defer logger.Sync() //nolint:errcheck

			// Config-file defaults apply where the flag was not given.
			loadConfigDefaults()
			if !cmd.Flags().Changed("threads") {
				threads = viper.GetInt("threads")
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = viper.GetDuration("timeout")
			}
			if !cmd.Flags().Changed("rate") {
				rateLimit = viper.GetInt("rate")
			}
			if !cmd.Flags().Changed("expiry-critical") {
				expiryCritical = viper.GetInt("expiry_critical_days")
			}
			if !cmd.Flags().Changed("expiry-warning") {
				expiryWarning = viper.GetInt("expiry_warning_days")
			}
			if !cmd.Flags().Changed("resolver") {
				resolver = viper.GetString("resolver")
			}

			cfg := engine.Config{
				Domains:            splitDomains(domainsFlag),
				Threads:            threads,
				Timeout:            timeout,
				RateLimit:          rateLimit,
				ExpiryCriticalDays: expiryCritical,
				ExpiryWarningDays:  expiryWarning,
			}

			// Set up context with signal handling for clean Ctrl+C.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, "\nInterrupted, finishing in-flight scans...")
				cancel()
			}()

			sugar := logger.Sugar()
			collectors := engine.Collectors{
				DNS: &collect.DNSCollector{
					Server:  resolver,
					Timeout: timeout,
					AXFR:    axfr,
					Logger:  sugar,
				},
				Whois: &collect.WhoisCollector{
					Timeout: timeout,
					Logger:  sugar,
				},
			}
			ruleEngine := rules.NewEngine(rules.Thresholds{
				ExpiryCriticalDays: cfg.ExpiryCriticalDays,
				ExpiryWarningDays:  cfg.ExpiryWarningDays,
			})

			showProgress := !jsonStdout && !silent
			progress := output.NewProgress(os.Stderr, verbose, !showProgress)

			if showProgress {
				output.WriteHeader(os.Stderr, noColor)
			}

			batch, err := engine.Run(ctx, cfg, collectors, ruleEngine, progress)
			if err != nil {
				return err
			}

			if showProgress {
				progress.Complete()
			}

			if jsonOut != "" {
				if err := writeJSONFile(jsonOut, batch); err != nil {
					return fmt.Errorf("write json report: %w", err)
				}
				sugar.Infow("json report written", "path", jsonOut)
			}
			if pdfOut != "" {
				if err := output.WritePDF(pdfOut, batch); err != nil {
					return fmt.Errorf("write pdf report: %w", err)
				}
				sugar.Infow("pdf report written", "path", pdfOut)
			}

			if jsonStdout {
				if err := output.WriteJSON(os.Stdout, batch); err != nil {
					return err
				}
			} else {
				output.WriteTables(os.Stdout, batch, noColor)
				output.WriteSummary(os.Stdout, batch, noColor)
			}

			// Partial success still exits 0; only a fully failed batch is an error.
			if batch.Summary.DomainsFailed == len(batch.Results) {
				return fmt.Errorf("all %d domains failed", len(batch.Results))
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&domainsFlag, "domains", "", "Comma-separated list of domains to scan (required)")
	rootCmd.Flags().IntVar(&threads, "threads", engine.DefaultThreads, "Number of concurrent domain scans")
	rootCmd.Flags().DurationVar(&timeout, "timeout", engine.DefaultTimeout, "Per-collector timeout")
	rootCmd.Flags().IntVar(&rateLimit, "rate", 0, "Max lookups per second across all workers (0 = unlimited)")
	rootCmd.Flags().IntVar(&expiryCritical, "expiry-critical", engine.DefaultExpiryCritical, "Days before expiry that raise a CRITICAL finding")
	rootCmd.Flags().IntVar(&expiryWarning, "expiry-warning", engine.DefaultExpiryWarning, "Days before expiry that raise a WARNING finding")
	rootCmd.Flags().StringVar(&resolver, "resolver", "", "Resolver address as host:port (default: /etc/resolv.conf)")
	rootCmd.Flags().BoolVar(&axfr, "axfr", false, "Probe nameservers for open zone transfers")
	rootCmd.Flags().StringVar(&jsonOut, "json-out", "", "Write machine-readable JSON report to this path")
	rootCmd.Flags().StringVar(&pdfOut, "pdf-out", "", "Write human-readable PDF report to this path")
	rootCmd.Flags().BoolVar(&jsonStdout, "json", false, "Output structured JSON to stdout")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable terminal colors")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "Results only, no progress output")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose per-domain progress and debug logs")
	_ = rootCmd.MarkFlagRequired("domains")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("zoneguard {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfigDefaults reads optional defaults from ~/.zoneguard.yaml.
func loadConfigDefaults() {
	viper.SetConfigName(".zoneguard")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("zoneguard")
	viper.AutomaticEnv()

	viper.SetDefault("threads", engine.DefaultThreads)
	viper.SetDefault("timeout", engine.DefaultTimeout)
	viper.SetDefault("rate", 0)
	viper.SetDefault("expiry_critical_days", engine.DefaultExpiryCritical)
	viper.SetDefault("expiry_warning_days", engine.DefaultExpiryWarning)
	viper.SetDefault("resolver", "")

	_ = viper.ReadInConfig()
}

// splitDomains parses the comma-separated --domains value.
func splitDomains(s string) []string {
	var domains []string
	seen := make(map[string]bool)
	for _, d := range strings.Split(s, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	return domains
}

func writeJSONFile(path string, batch *engine.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return output.WriteJSON(f, batch)
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}
