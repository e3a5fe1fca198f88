// Package prompts holds the three fixed instructional templates the helper
// sends to the text-generation service, and the character budgets applied to
// caller-supplied context before it is embedded.
package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// MaxCodebaseContextChars bounds the codebase summary embedded in a spec prompt
	MaxCodebaseContextChars = 4000
	// MaxDiffChars bounds the diff embedded in a review prompt
	MaxDiffChars = 8000

	projectDescription = "Ora Admin Portal (Next.js 15 + TypeScript + Firebase)"
)

// Truncate returns the first max characters of s. Characters are Unicode
// code points, so multi-byte text is never cut mid-rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}

	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// Spec builds the issue-to-technical-specification prompt
func Spec(issueTitle, issueBody, codebaseContext string) string {
	return fmt.Sprintf(`You are a technical architect for %s.

A feature request has been filed:

**Title**: %s

**Details**:
%s

**Codebase Context**:
%s

Generate a detailed technical specification including:

1. **Overview**: High-level summary
2. **Architecture & Design**: Components, data flow, patterns
3. **API Contracts**: Endpoints, request/response schemas (TypeScript)
4. **Data Models**: Firestore collections/documents with TypeScript interfaces
5. **Security Considerations**: Firestore rules, permissions, validation
6. **Performance Considerations**: Optimizations, caching, scaling
7. **Testing Strategy**: Unit tests, integration tests, E2E scenarios
8. **Implementation Tasks**: Concrete checklist for developers

Format in Markdown with TypeScript code blocks for schemas.
Be specific and actionable. Reference existing patterns in the codebase.
`, projectDescription, issueTitle, issueBody, Truncate(codebaseContext, MaxCodebaseContextChars))
}

// TestAnalysis builds the failure-triage prompt. failures is serialized as
// indented JSON, so any slice of JSON-taggable records works.
func TestAnalysis(failures any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(failures); err != nil {
		return "", fmt.Errorf("encode failures: %w", err)
	}
	encoded := bytes.TrimRight(buf.Bytes(), "\n")

	return fmt.Sprintf("You are debugging test failures in %s.\n\n"+
		"**Test Failures**:\n"+
		"```json\n%s\n```\n\n"+
		`For each failure, provide:

1. **Root Cause**: What's likely causing this failure?
2. **Suggested Fix**: Specific code changes to resolve it
3. **Prevention**: How to prevent similar issues in the future

Format as Markdown with code blocks for suggested fixes.
Be concise but specific. Reference TypeScript/React best practices.
`, projectDescription, encoded), nil
}

// PRReview builds the pull-request review prompt. changeSummary is an optional
// per-file overview rendered under the diff; pass "" to omit it.
func PRReview(diff, prDescription, changeSummary string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are reviewing a Pull Request for %s.\n\n", projectDescription)
	fmt.Fprintf(&sb, "**PR Description**:\n%s\n\n", prDescription)
	fmt.Fprintf(&sb, "**Code Changes**:\n```diff\n%s\n```\n\n", Truncate(diff, MaxDiffChars))

	if changeSummary != "" {
		fmt.Fprintf(&sb, "**Changed Files**:\n%s\n\n", strings.TrimRight(changeSummary, "\n"))
	}

	sb.WriteString(`Review the code and provide:

1. **Summary**: High-level assessment
2. **Potential Issues**: Bugs, security concerns, performance problems
3. **Suggestions**: Improvements for code quality, readability, maintainability
4. **Security**: Any security considerations
5. **Testing**: Are there sufficient tests?

Format as Markdown. Be constructive and specific.
Focus on:
- TypeScript type safety
- React best practices
- Firebase security (Firestore rules, sensitive data)
- Error handling
- Performance implications
`)

	return sb.String()
}
