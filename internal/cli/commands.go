package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/oraportal/claude-api/internal/assistant"
	"github.com/oraportal/claude-api/internal/errors"
	"github.com/oraportal/claude-api/internal/github"
	"github.com/oraportal/claude-api/internal/testreport"
	"github.com/spf13/cobra"
)

func (a *app) specCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Generate a technical specification from an issue",
		Args:  cobra.NoArgs,
		RunE:  a.runSpec,
	}
}

func (a *app) testAnalysisCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-analysis",
		Short: "Explain failing tests from a JSON test report",
		Args:  cobra.NoArgs,
		RunE:  a.runTestAnalysis,
	}
}

func (a *app) prReviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pr-review",
		Short: "Review a pull request diff",
		Args:  cobra.NoArgs,
		RunE:  a.runPRReview,
	}
}

func (a *app) newAssistant(ctx context.Context) (*assistant.Assistant, error) {
	completer, err := a.newCompleter(ctx)
	if err != nil {
		return nil, err
	}
	return assistant.New(completer, assistant.Config{
		SpecMaxTokens:         a.cfg.Tokens.Spec,
		TestAnalysisMaxTokens: a.cfg.Tokens.TestAnalysis,
		PRReviewMaxTokens:     a.cfg.Tokens.PRReview,
	}, a.logger), nil
}

func (a *app) runSpec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asst, err := a.newAssistant(ctx)
	if err != nil {
		return err
	}

	title, body := a.flags.issueTitle, a.flags.issueBody
	if (title == "" || body == "") && a.flags.issueNumber > 0 {
		issue, err := a.fetchIssue(ctx)
		if err != nil {
			return err
		}
		if title == "" {
			title = issue.Title
		}
		if body == "" {
			body = issue.Body
		}
	}
	if title == "" || body == "" {
		return errors.MissingInput("--issue-title and --issue-body required for spec generation")
	}

	codebaseContext, err := readOptionalFile(a.flags.codebaseContext)
	if err != nil {
		return err
	}

	result, err := asst.GenerateSpec(ctx, title, body, codebaseContext)
	if err != nil {
		return err
	}
	return a.out.Result(result, a.flags.output)
}

func (a *app) runTestAnalysis(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asst, err := a.newAssistant(ctx)
	if err != nil {
		return err
	}

	if a.flags.testReport == "" {
		return errors.MissingInput("--test-report required for test analysis")
	}

	report, err := testreport.ParseFile(a.flags.testReport)
	if err != nil {
		return err
	}
	if report.Shape == testreport.ShapeUnrecognized {
		if a.flags.strictReport {
			return errors.MalformedReport(nil, "test report has no testResults or suites array").
				WithContext("path", a.flags.testReport)
		}
		a.logger.Warn("unrecognized test report shape, treating as no failures",
			"path", a.flags.testReport)
	}

	result, err := asst.AnalyzeTestFailures(ctx, report)
	if err != nil {
		return err
	}
	return a.out.Result(result, a.flags.output)
}

func (a *app) runPRReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asst, err := a.newAssistant(ctx)
	if err != nil {
		return err
	}

	description := a.flags.prDescription
	var fetched *github.PullRequest
	if (a.flags.diff == "" || description == "") && a.flags.prNumber > 0 {
		fetched, err = a.fetchPullRequest(ctx)
		if err != nil {
			return err
		}
		if description == "" {
			description = fetched.Body
		}
	}
	if (a.flags.diff == "" && fetched == nil) || description == "" {
		return errors.MissingInput("--diff and --pr-description required for PR review")
	}

	var diff string
	if a.flags.diff != "" {
		data, err := os.ReadFile(a.flags.diff)
		if err != nil {
			return errors.FileIOError(err, a.flags.diff)
		}
		diff = string(data)
	} else {
		diff = fetched.Diff
	}

	result, err := asst.ReviewPR(ctx, diff, description)
	if err != nil {
		return err
	}
	return a.out.Result(result, a.flags.output)
}

func (a *app) fetchIssue(ctx context.Context) (*github.Issue, error) {
	owner, name, err := github.ParseRepo(a.flags.repo)
	if err != nil {
		return nil, err
	}
	source, err := a.opts.NewGitHubSource(a.cfg.GitHub)
	if err != nil {
		return nil, err
	}
	return source.FetchIssue(ctx, owner, name, a.flags.issueNumber)
}

func (a *app) fetchPullRequest(ctx context.Context) (*github.PullRequest, error) {
	owner, name, err := github.ParseRepo(a.flags.repo)
	if err != nil {
		return nil, err
	}
	source, err := a.opts.NewGitHubSource(a.cfg.GitHub)
	if err != nil {
		return nil, err
	}
	return source.FetchPullRequest(ctx, owner, name, a.flags.prNumber)
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.FileIOError(err, path)
	}
	return string(data), nil
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "claude-api %s\nBuild time: %s\nGit commit: %s\n",
				a.opts.Version, a.opts.BuildTime, a.opts.GitCommit)
		},
	}
}
