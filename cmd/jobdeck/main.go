package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
	"github.com/ensigniasec/jobdeck/internal/auth"
	"github.com/ensigniasec/jobdeck/internal/config"
	"github.com/ensigniasec/jobdeck/internal/logging"
	"github.com/ensigniasec/jobdeck/internal/port"
	"github.com/ensigniasec/jobdeck/internal/storage"
	"github.com/ensigniasec/jobdeck/internal/tui"
)

//nolint:gochecknoglobals // Cobra requires package-level vars for flag bindings in current structure.
var (
	// Version metadata populated at build time via -ldflags.
	releaseVersion = "dev"
	commit         = "none"
	date           = "unknown"

	// Used for flags.
	configFile string
	verbose    bool
	jsonOutput bool

	rootCmd = &cobra.Command{
		Use:   "jobdeck",
		Short: "A terminal dashboard for HPC jobs, remote files and job output.",
		Long: `jobdeck shows your jobs on the remote compute API, lets you browse and download files, and follows job output live.

Run without a subcommand to start the interactive dashboard.`,
		SilenceUsage: true,
		RunE:         runDashboard,
	}
)

//nolint:gochecknoinits // Cobra command wiring performed in init in current structure.
func init() {
	// Route logs to stderr to avoid polluting stdout, especially for --json output.
	logrus.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging output")
	jobsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output jobs in JSON format instead of a table")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(configCmd)

	// Built-in version flag: set version string and a custom template.
	rootCmd.Version = releaseVersion
	rootCmd.Annotations = map[string]string{"commit": commit, "date": date}
	rootCmd.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")
	api.BuildVersion = releaseVersion
}

// env is what every command needs once the configuration is loaded.
type env struct {
	cfg    config.Config
	flow   *auth.Flow
	client *api.Client
}

func loadEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.SecretsFile)
	if err != nil {
		return nil, fmt.Errorf("open secret store: %w", err)
	}
	flow := auth.NewFlow(cfg.Auth, store)
	client, err := api.NewClient(
		api.WithBaseURL(cfg.APIURL),
		api.WithTokenSource(flow.TokenSource(ctx)),
	)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, flow: flow, client: client}, nil
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := loadEnv(ctx)
	if err != nil {
		return err
	}

	// The dashboard owns the terminal; logs go to a file.
	closer, err := logging.Configure(e.cfg.LogFile, verbose)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	if n, err := storage.SweepPartial(ctx, e.cfg.DownloadDir, port.PartialSuffix); err != nil {
		logrus.WithError(err).Warn("could not clean up interrupted downloads")
	} else if n > 0 {
		logrus.WithField("count", n).Info("removed interrupted downloads")
	}

	logrus.WithField("api", e.cfg.APIURL).Info("starting dashboard")
	return tui.Run(ctx, tui.Options{Config: e.cfg, Client: e.client, Auth: e.flow})
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with the device authorization flow",
	Long:  "Request a device code, print where to enter it, and wait until the login is approved in a browser.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := logging.Configure("", verbose); err != nil {
			return err
		}
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		da, err := e.flow.DeviceAuth(cmd.Context())
		if err != nil {
			return fmt.Errorf("request device code: %w", err)
		}
		url := da.VerificationURIComplete
		if url == "" {
			url = da.VerificationURI
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Open %s and enter the code %s\n", url, da.UserCode)
		tok, err := e.flow.DeviceAccessToken(cmd.Context(), da)
		if err != nil {
			return fmt.Errorf("device login: %w", err)
		}
		if err := e.flow.SaveToken(tok); err != nil {
			return fmt.Errorf("store credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
		return nil
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		if err := e.flow.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List your jobs without starting the dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if jsonOutput && !verbose {
			logging.Discard()
		}
		e, err := loadEnv(cmd.Context())
		if err != nil {
			return err
		}
		jobs, err := e.client.ListJobs(cmd.Context())
		if err != nil {
			if a, ok := port.ErrorAction(err); ok {
				if ea, ok := a.(action.Error); ok && ea.Suggestion != "" {
					return fmt.Errorf("%w\n%s", err, ea.Suggestion)
				}
			}
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(jobs)
		}
		if len(jobs) == 0 {
			fmt.Fprintln(out, "No jobs.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSYSTEM\tSTATE\tSUBMITTED")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Name, j.System, j.State, j.SubmittedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logrus.Fatal(err)
	}
}

func main() {
	Execute()
}
