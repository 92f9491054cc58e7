package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantmind-br/wikiport/internal/app"
	"github.com/quantmind-br/wikiport/internal/config"
	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/manifest"
	"github.com/quantmind-br/wikiport/internal/tui"
	"github.com/quantmind-br/wikiport/internal/uploader"
	"github.com/quantmind-br/wikiport/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

// errRunFailed keeps the exit code non-zero without re-printing item errors
// that were already reported in the summary.
var errRunFailed = errors.New("one or more items failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wikiport",
	Short: "Upload extracted wiki spaces to a remote knowledge base",
	Long: `Wikiport synchronizes locally extracted wiki space exports into a remote
knowledge base: one collection per space, documents created parent-first,
attachments uploaded and re-linked in document bodies.

Runs are resumable: progress is committed after every remote change, and an
interrupted run picks up where it left off.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.wikiport/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "Base URL of the remote knowledge base")
	rootCmd.PersistentFlags().String("api-token", "", "API bearer token")
	rootCmd.PersistentFlags().String("spaces-dir", config.DefaultSpacesDir, "Directory containing space exports")
	rootCmd.PersistentFlags().String("state-dir", config.DefaultStateDir, "Directory for synchronization state")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	_ = viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("api.token", rootCmd.PersistentFlags().Lookup("api-token"))
	_ = viper.BindPFlag("paths.spaces_dir", rootCmd.PersistentFlags().Lookup("spaces-dir"))
	_ = viper.BindPFlag("paths.state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))

	uploadCmd.Flags().BoolP("force", "f", false, "Update already-created documents (binaries are never re-uploaded)")
	uploadCmd.Flags().Bool("publish", config.DefaultPublish, "Publish documents on creation")
	uploadCmd.Flags().IntP("concurrency", "j", config.DefaultConcurrency, "Number of spaces synchronized in parallel")
	uploadCmd.Flags().BoolP("interactive", "i", false, "Prompt when a collection name matches several remote collections")
	uploadCmd.Flags().StringP("manifest", "m", "", "Batch manifest file (YAML or JSON)")

	_ = viper.BindPFlag("upload.force", uploadCmd.Flags().Lookup("force"))
	_ = viper.BindPFlag("upload.publish", uploadCmd.Flags().Lookup("publish"))
	_ = viper.BindPFlag("upload.concurrency", uploadCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("upload.interactive", uploadCmd.Flags().Lookup("interactive"))

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(spacesCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. Cancellation
// takes effect between remote operations, never between a call and its
// state commit.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Interrupted, finishing current operation...")
		cancel()
	}()

	return ctx, cancel
}

func newOrchestrator(interactive bool) (*app.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var strategy uploader.AmbiguityStrategy
	if interactive || cfg.Upload.Interactive {
		strategy = tui.CollectionPicker{}
	}

	return app.NewOrchestrator(app.OrchestratorOptions{
		Config:   cfg,
		Strategy: strategy,
		Verbose:  verbose,
	})
}

var uploadCmd = &cobra.Command{
	Use:   "upload [space-key...]",
	Short: "Synchronize spaces to the remote knowledge base",
	Long: `Synchronizes the given space exports (all exports in the spaces directory
when none are named). Already-synchronized items are skipped, so rerunning
after a failure or interruption completes the remaining work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath, _ := cmd.Flags().GetString("manifest")

		// Manifest options feed the config, so parse it before the
		// orchestrator is built.
		var m *manifest.Config
		if manifestPath != "" {
			if len(args) > 0 {
				return fmt.Errorf("space keys and --manifest are mutually exclusive")
			}
			var err error
			m, err = manifest.NewLoader().Load(manifestPath)
			if err != nil {
				return err
			}
			if m.Options.Concurrency > 0 {
				viper.Set("upload.concurrency", m.Options.Concurrency)
			}
			if m.Options.ContinueOnError != nil {
				viper.Set("upload.continue_on_error", *m.Options.ContinueOnError)
			}
		}

		interactive, _ := cmd.Flags().GetBool("interactive")
		orch, err := newOrchestrator(interactive)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		var reqs []app.SpaceRequest
		if m != nil {
			reqs = manifestRequests(m)
		} else {
			reqs, err = orch.Requests(args, domain.RunOptions{
				Force:   viper.GetBool("upload.force"),
				Publish: viper.GetBool("upload.publish"),
				Verbose: verbose,
			})
		}
		if err != nil {
			return err
		}

		reports, runErr := orch.Run(ctx, reqs)
		printReports(reports)
		if runErr != nil {
			return runErr
		}

		for _, r := range reports {
			if !r.OK() {
				return errRunFailed
			}
		}
		return nil
	},
}

// manifestRequests expands a batch manifest into per-space requests.
func manifestRequests(m *manifest.Config) []app.SpaceRequest {
	publish := viper.GetBool("upload.publish")
	if m.Options.Publish != nil {
		publish = *m.Options.Publish
	}

	reqs := make([]app.SpaceRequest, 0, len(m.Spaces))
	for _, key := range m.Keys() {
		reqs = append(reqs, app.SpaceRequest{
			Key: key,
			Options: domain.RunOptions{
				Force:   m.ForceFor(key),
				Publish: publish,
				Verbose: verbose,
			},
		})
	}
	return reqs
}

func printReports(reports []*uploader.Report) {
	for _, r := range reports {
		fmt.Println(r.Summary())
		for _, it := range r.Failed() {
			fmt.Printf("  %s %s (%s): %v\n", it.Kind, it.LocalID, it.Title, it.Err)
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status [space-key...]",
	Short: "Show committed synchronization progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(false)
		if err != nil {
			return err
		}

		statuses, err := orch.Status(args)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SPACE\tCOLLECTION\tPAGES\tATTACHMENTS")
		for _, s := range statuses {
			collection := s.CollectionID
			if collection == "" {
				collection = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d/%d\n",
				s.Key, collection, s.PagesCreated, s.Pages, s.AttachmentsDone, s.Attachments)
		}
		return w.Flush()
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <space-key>...",
	Short: "Destroy synchronization state for spaces",
	Long: `Destroys the committed state of the named spaces. The next upload starts
from scratch and will create duplicate remote objects if the previous ones
still exist. Remote data is never touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		return orch.Reset(args)
	},
}

var spacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "List space exports available locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(false)
		if err != nil {
			return err
		}

		keys, err := orch.Spaces()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify API connectivity and credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(false)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		user, err := orch.CheckAuth(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Authenticated as %s\n", user)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
