// Package cli wires the claude-api command tree: flag parsing, input reads,
// one call to the text-generation service and result emission.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/oraportal/claude-api/internal/config"
	"github.com/oraportal/claude-api/internal/errors"
	"github.com/oraportal/claude-api/internal/github"
	"github.com/oraportal/claude-api/internal/llm"
	"github.com/oraportal/claude-api/internal/logging"
	"github.com/oraportal/claude-api/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GitHubSource fetches issue and pull-request inputs
type GitHubSource interface {
	FetchIssue(ctx context.Context, owner, name string, number int) (*github.Issue, error)
	FetchPullRequest(ctx context.Context, owner, name string, number int) (*github.PullRequest, error)
}

// Options are the process-level dependencies of the command tree
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewCompleter builds the text-generation client; defaults to llm.New
	NewCompleter func(ctx context.Context, cfg llm.Config) (llm.Completer, error)
	// NewGitHubSource builds the GitHub client; defaults to github.NewClient
	NewGitHubSource func(cfg config.GitHubConfig) (GitHubSource, error)

	Version   string
	BuildTime string
	GitCommit string
}

func (o *Options) setDefaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.NewCompleter == nil {
		o.NewCompleter = llm.New
	}
	if o.NewGitHubSource == nil {
		o.NewGitHubSource = func(cfg config.GitHubConfig) (GitHubSource, error) {
			return github.NewClient(cfg.Token, cfg.RateLimit, cfg.BaseURL)
		}
	}
	if o.Version == "" {
		o.Version = "dev"
	}
}

// flagValues holds every persistent flag; all commands accept all flags
type flagValues struct {
	configFile string
	verbose    bool
	apiKey     string
	provider   string
	model      string

	issueTitle      string
	issueBody       string
	codebaseContext string
	testReport      string
	diff            string
	prDescription   string
	output          string
	strictReport    bool

	repo        string
	issueNumber int
	prNumber    int
}

type app struct {
	opts   Options
	flags  flagValues
	cfg    *config.Config
	mode   config.DeploymentMode
	log    *logging.Logger
	logger *slog.Logger
	out    *output.Writer
}

// Execute runs the command tree with args and returns the process exit code
func Execute(ctx context.Context, args []string, opts Options) int {
	opts.setDefaults()
	a := &app{
		opts: opts,
		out:  &output.Writer{Out: opts.Stdout, Err: opts.Stderr},
	}

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	err := root.ExecuteContext(ctx)
	var detailed *errors.Error
	if a.logger != nil && stderrors.As(err, &detailed) {
		a.logger.Debug("command failed", "detail", detailed.DetailedString())
	}
	if a.log != nil {
		a.log.Close()
	}
	if err != nil {
		a.out.Error(err)
	}
	return errors.ExitCode(err)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "claude-api",
		Short: "Prompt-and-dispatch helper for CI workflows",
		Long: `claude-api turns CI inputs into a single request to a text-generation
service and prints the reply:

  spec           issue title/body → technical specification
  test-analysis  JSON test report → root causes and fixes for each failure
  pr-review      diff + description → review commentary`,
		Version:           a.opts.Version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.MissingInput("a command is required (spec, test-analysis, pr-review); see --help")
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default: .claude-api/config.yaml)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&a.flags.apiKey, "api-key", "", "API key (default: CLAUDE_API_KEY)")
	pf.StringVar(&a.flags.provider, "provider", "", "text-generation provider: anthropic, openai, gemini")
	pf.StringVar(&a.flags.model, "model", "", "model name (default: "+config.DefaultModel+")")

	pf.StringVar(&a.flags.issueTitle, "issue-title", "", "GitHub issue title")
	pf.StringVar(&a.flags.issueBody, "issue-body", "", "GitHub issue body")
	pf.StringVar(&a.flags.codebaseContext, "codebase-context", "", "codebase summary file path")
	pf.StringVar(&a.flags.testReport, "test-report", "", "test report JSON file path")
	pf.StringVar(&a.flags.diff, "diff", "", "git diff file path")
	pf.StringVar(&a.flags.prDescription, "pr-description", "", "PR description")
	pf.StringVar(&a.flags.output, "output", "", "output file path (default: stdout)")
	pf.BoolVar(&a.flags.strictReport, "strict-report", false, "fail on test reports of unrecognized shape")

	pf.StringVar(&a.flags.repo, "repo", "", "GitHub repository (owner/name) to fetch missing inputs from")
	pf.IntVar(&a.flags.issueNumber, "issue-number", 0, "issue to fetch title and body from")
	pf.IntVar(&a.flags.prNumber, "pr-number", 0, "pull request to fetch diff and description from")

	root.SetVersionTemplate(`claude-api {{.Version}}
Build time: ` + a.opts.BuildTime + `
Git commit: ` + a.opts.GitCommit + `
`)

	root.AddCommand(a.specCommand())
	root.AddCommand(a.testAnalysisCommand())
	root.AddCommand(a.prReviewCommand())
	root.AddCommand(a.configureCommand())
	root.AddCommand(a.versionCommand())

	return root
}

// setup loads configuration and installs the run's logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	bootLog := logrus.New()
	bootLog.SetOutput(a.opts.Stderr)
	if a.flags.verbose {
		bootLog.SetLevel(logrus.DebugLevel)
	} else {
		bootLog.SetLevel(logrus.WarnLevel)
	}

	cfg, err := config.Load(a.flags.configFile)
	if err != nil {
		if errors.GetKind(err) == errors.KindConfiguration {
			return err
		}
		bootLog.WithError(err).Warn("Failed to load config, using defaults")
		cfg = config.Default()
	}

	if a.flags.provider != "" {
		cfg.API.Provider = a.flags.provider
	}
	if a.flags.model != "" {
		cfg.API.Model = a.flags.model
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.mode = config.DetectMode()
	logCfg := logging.DefaultConfig(a.flags.verbose, a.mode == config.ModeCI)
	logCfg.Output = a.opts.Stderr
	logCfg.OutputFile = cfg.Log.File

	log, err := logging.NewLogger(logCfg)
	if err != nil {
		return errors.Wrap(err, errors.KindFileIO, "failed to open log file").WithContext("path", cfg.Log.File)
	}
	a.log = log

	runLog := log.With("run_id", uuid.NewString(), "command", cmd.Name())
	runLog.SetDefault()
	a.logger = runLog.Slog().With("component", "cli")
	a.logger.Debug("configuration loaded", "provider", cfg.API.Provider, "mode", a.mode.String())

	return nil
}

// newCompleter resolves the credential and builds the client. It runs before
// any input is read, so a missing key fails every command up front.
func (a *app) newCompleter(ctx context.Context) (llm.Completer, error) {
	provider := a.cfg.API.Provider
	creds := config.NewCredentialManager(a.cfg.API.UseStoredCredentials)

	key, source, err := creds.ResolveAPIKey(provider, a.flags.apiKey)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("api key resolved", "source", source, "key", config.MaskAPIKey(key))

	return a.opts.NewCompleter(ctx, llm.Config{
		Provider:   provider,
		APIKey:     key,
		BaseURL:    a.cfg.API.BaseURL,
		Model:      a.cfg.ModelFor(provider),
		Timeout:    a.cfg.API.Timeout,
		MaxRetries: a.cfg.API.MaxRetries,
	})
}
