// Package assistant implements the three helper operations: turning an issue
// into a technical specification, triaging failing tests, and reviewing a
// pull request. Each operation makes at most one call to the Completer.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oraportal/claude-api/internal/diffstat"
	"github.com/oraportal/claude-api/internal/errors"
	"github.com/oraportal/claude-api/internal/llm"
	"github.com/oraportal/claude-api/internal/prompts"
	"github.com/oraportal/claude-api/internal/testreport"
)

// NoFailuresMessage is returned when a report contains no failing tests
const NoFailuresMessage = "✅ No test failures detected"

// Config carries the per-operation output token limits
type Config struct {
	SpecMaxTokens         int
	TestAnalysisMaxTokens int
	PRReviewMaxTokens     int
}

// DefaultConfig returns the standard token limits
func DefaultConfig() Config {
	return Config{
		SpecMaxTokens:         4096,
		TestAnalysisMaxTokens: 2048,
		PRReviewMaxTokens:     2048,
	}
}

// Assistant runs operations against a single Completer
type Assistant struct {
	completer llm.Completer
	cfg       Config
	logger    *slog.Logger
}

// New creates an Assistant. A nil logger uses slog.Default().
func New(completer llm.Completer, cfg Config, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		completer: completer,
		cfg:       cfg,
		logger:    logger.With("component", "assistant", "model", completer.Model()),
	}
}

// GenerateSpec turns an issue title and body into a technical specification.
// codebaseContext is optional and is cut to prompts.MaxCodebaseContextChars.
func (a *Assistant) GenerateSpec(ctx context.Context, issueTitle, issueBody, codebaseContext string) (string, error) {
	if isBlank(issueTitle) || isBlank(issueBody) {
		return "", errors.MissingInput("--issue-title and --issue-body required for spec generation")
	}

	prompt := prompts.Spec(issueTitle, issueBody, codebaseContext)
	return a.complete(ctx, "spec", prompt, a.cfg.SpecMaxTokens)
}

// AnalyzeTestFailures asks for root causes and fixes for each failure in the
// report. With no failures it returns NoFailuresMessage without calling out.
func (a *Assistant) AnalyzeTestFailures(ctx context.Context, report testreport.Result) (string, error) {
	if !report.HasFailures() {
		a.logger.Debug("no failures in report", "shape", report.Shape.String())
		return NoFailuresMessage, nil
	}

	prompt, err := prompts.TestAnalysis(report.Failures)
	if err != nil {
		return "", errors.Wrap(err, errors.KindInternal, "failed to build test analysis prompt")
	}

	a.logger.Debug("analyzing failures", "shape", report.Shape.String(), "failures", len(report.Failures))
	return a.complete(ctx, "test-analysis", prompt, a.cfg.TestAnalysisMaxTokens)
}

// ReviewPR reviews a unified diff against the PR description. The diff is cut
// to prompts.MaxDiffChars; the per-file summary is computed from the full diff.
func (a *Assistant) ReviewPR(ctx context.Context, diff, prDescription string) (string, error) {
	if isBlank(diff) || isBlank(prDescription) {
		return "", errors.MissingInput("--diff and --pr-description required for PR review")
	}

	var changeSummary string
	if summary, err := diffstat.Summarize(diff); err != nil {
		a.logger.Debug("diff summary unavailable", "error", err)
	} else {
		changeSummary = summary.Markdown()
	}

	if n := len([]rune(diff)); n > prompts.MaxDiffChars {
		a.logger.Debug("truncating diff", "chars", n, "limit", prompts.MaxDiffChars)
	}

	prompt := prompts.PRReview(diff, prDescription, changeSummary)
	return a.complete(ctx, "pr-review", prompt, a.cfg.PRReviewMaxTokens)
}

func (a *Assistant) complete(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	resp, err := a.completer.Complete(ctx, llm.Request{
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	a.logger.Info("completion finished",
		"operation", operation,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
	)
	return resp.Text, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
