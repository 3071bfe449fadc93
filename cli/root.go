package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flowpipe/flowpipe"
	"github.com/flowpipe/flowpipe/config"
	"github.com/flowpipe/flowpipe/logging"
	"github.com/flowpipe/flowpipe/pkg/version"
)

var (
	repoPath    string
	outPath     string
	configDir   string
	logLevel    string
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:   "flowpipe",
	Short: "Run a configurable pipeline of model-backed steps over input artifacts",
	Long: `flowpipe executes a declaratively configured flow graph of named steps
over every artifact in a repository folder, writing one output tree per
artifact. Step topology, settings and prompts come from the configuration
documents; per-artifact and per-branch failures are logged without aborting
the rest of the run.`,
	SilenceUsage: true,
	RunE:         runPipeline,
}

// Execute runs the CLI. The returned error is non-nil only for startup-level
// fatal conditions; per-artifact failures are reported in the summary and do
// not change the exit status.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVar(&repoPath, "repo", "", "input repository folder (default from configuration)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output root folder (default from configuration)")
	rootCmd.Flags().StringVar(&configDir, "config", "", "configuration folder containing the three JSON documents")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of artifacts processed in parallel")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowpipe %s\n", version.Version)
	},
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger := logging.NewSlogLogger(logging.ParseLogLevel(logLevel), "text", false)

	paths := config.DefaultPaths()
	if configDir != "" {
		paths = config.Paths{
			Defaults: filepath.Join(configDir, "default_config.json"),
			Steps:    filepath.Join(configDir, "step_config.json"),
			Flow:     filepath.Join(configDir, "flow.json"),
		}
	}

	p, err := flowpipe.New(func(o *flowpipe.Options) {
		o.ConfigPaths = paths
		o.RepositoryDir = repoPath
		o.OutputDir = outPath
		o.Concurrency = concurrency
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	results, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
			for _, f := range res.Failures {
				fmt.Printf("FAIL  %s: step %s: %v\n", res.Artifact, f.Step, f.Err)
			}
			continue
		}
		fmt.Printf("OK    %s: %d steps completed\n", res.Artifact, len(res.Completed))
	}
	fmt.Printf("Processed %d artifacts, %d with failures\n", len(results), failed)
	return nil
}
