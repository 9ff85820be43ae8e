package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	jobtop "github.com/jondoveston/jobtop/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jobtop [page-url]",
	Short: "Terminal chart of the CPU, memory and GPU usage of an HPC job",
	Long: `jobtop polls the jobmetrics REST API for one job and keeps a chart of
its CPU, memory and GPU usage up to date.

The page URL carries the same query parameters as the web page
(cluster, job, period, debug, hide_pss, hide_rss); the API root is
derived from its origin unless --api-url is given.

Examples:
  jobtop 'https://hpc.example.org/jobmetrics/?cluster=c1&job=4242'
  jobtop --api-url https://hpc.example.org/jobmetrics-restapi --cluster c1 --job 4242 --period 6h
  jobtop serve 'https://hpc.example.org/jobmetrics/?cluster=c1&job=4242&debug'
  jobtop export 'https://hpc.example.org/jobmetrics/?cluster=c1&job=4242' -o job.parquet
  JOBTOP_CLUSTER=c1 JOBTOP_JOB=4242 JOBTOP_API_URL=http://localhost:5000 jobtop`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

var serveCmd = &cobra.Command{
	Use:   "serve [page-url]",
	Short: "Serve the chart as an HTML page with its data and metrics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  serve,
}

var exportCmd = &cobra.Command{
	Use:   "export [page-url]",
	Short: "Fetch one period and write the normalized series to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  export,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "", "jobmetrics REST API root (default: page origin + "+jobtop.API_BASE_PATH+")")
	flags.String("cluster", "", "cluster name")
	flags.String("job", "", "job ID")
	flags.String("period", jobtop.DEFAULT_PERIOD, "time window: 1h, 6h or 24h")
	flags.String("schema", string(jobtop.SchemaCPU4), "sample layout sent by the backend")
	flags.Bool("debug", false, "show the debug panel")
	flags.Bool("hide-pss", false, "hide the PSS memory series (GPU layout only)")
	flags.Bool("hide-rss", false, "hide the RSS memory series (GPU layout only)")
	flags.Duration("interval", jobtop.UpdateDuration(), "refresh interval")
	flags.Duration("timeout", jobtop.FetchTimeout(), "request timeout")
	flags.Bool("weekends", false, "shade weekends")
	flags.String("log-file", "", "log to this file in dashboard mode")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	serveCmd.Flags().String("addr", ":8080", "listen address")
	exportCmd.Flags().StringP("output", "o", "", "output file, - for stdout (required)")
	exportCmd.Flags().String("format", "", "csv or parquet (default: from the file extension)")
	exportCmd.MarkFlagRequired("output")

	// Bind flags to Viper keys (dashes in flags become underscores in viper)
	for _, name := range []string{
		"api-url", "cluster", "job", "period", "schema", "debug",
		"hide-pss", "hide-rss", "interval", "timeout", "weekends", "log-file",
	} {
		if err := viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)); err != nil {
			log.Fatalf("failed to bind %s: %v", name, err)
		}
	}
	if err := viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr")); err != nil {
		log.Fatalf("failed to bind addr: %v", err)
	}

	viper.SetEnvPrefix("jobtop")
	viper.AutomaticEnv()

	viper.SetDefault("period", jobtop.DEFAULT_PERIOD)
	viper.SetDefault("interval", jobtop.UpdateDuration())
	viper.SetDefault("timeout", jobtop.FetchTimeout())
	viper.SetDefault("addr", ":8080")

	rootCmd.AddCommand(serveCmd, exportCmd)
}

// loadConfig builds the session from viper and the optional page URL.
func loadConfig(args []string) (jobtop.Config, error) {
	page := ""
	if len(args) == 1 {
		page = args[0]
	}
	cfg, err := jobtop.LoadConfig(viper.GetViper(), page)
	if err != nil {
		return jobtop.Config{}, err
	}
	log.Printf("cluster %s job %s period %s schema %s api %s", cfg.Cluster, cfg.Job, cfg.Period, cfg.Schema.Variant, cfg.APIBase)
	if len(cfg.Ignored) > 0 {
		log.Printf("ignoring page parameters %v", cfg.Ignored)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func run(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool("version"); v {
		fmt.Printf("jobtop version %s\n", version)
		return nil
	}

	// the alternate screen owns the terminal, so logs go to a file or nowhere
	if path := viper.GetString("log_file"); path != "" {
		f, err := tea.LogToFile(path, "jobtop")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	log.Printf("Starting jobtop %s", version)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return jobtop.Dashboard(ctx, cfg, jobtop.NewClient(cfg))
}

func serve(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return jobtop.NewServer(cfg, jobtop.NewClient(cfg)).ListenAndServe(ctx, viper.GetString("addr"))
}

func export(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = jobtop.FormatFromPath(output)
	}

	var w io.Writer = os.Stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	ctx, cancel := signalContext()
	defer cancel()
	n, err := jobtop.NewExporter(cfg, jobtop.NewClient(cfg)).Export(ctx, w, format)
	if err != nil {
		return err
	}
	if output != "-" {
		fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", n, output)
	}
	return nil
}
