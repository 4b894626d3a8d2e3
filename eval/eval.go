// Package eval provides test helpers for LLM-as-judge evaluation of
// generated commit messages and PR descriptions.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/gitscribe/gitscribe"
)

// Result is a judge's verdict on one criterion.
type Result struct {
	Passed    bool   `json:"passed"`
	Reasoning string `json:"reasoning"`
}

// Judge evaluates whether an output satisfies a criterion.
type Judge interface {
	Judge(ctx context.Context, criterion, output string) (*Result, error)
}

// Eval provides assertion helpers for LLM-based test evaluation.
type Eval struct {
	judge Judge
}

// New creates a new Eval with the given judge.
func New(judge Judge) *Eval {
	return &Eval{judge: judge}
}

// AssertRubric evaluates whether the output satisfies the given criterion.
// If the criterion is not satisfied, the test is marked as failed.
func (e *Eval) AssertRubric(tb testing.TB, criterion, output string) {
	tb.Helper()

	result, err := e.judge.Judge(tb.Context(), criterion, output)
	if err != nil {
		tb.Errorf("rubric evaluation failed: %v", err)
		return
	}

	if !result.Passed {
		tb.Errorf("rubric criterion not satisfied: %q\nReasoning: %s", criterion, result.Reasoning)
	}
}

// SkipUnlessEvals skips the test unless the GOEVALS environment variable
// is set. Use at the start of eval tests to make them opt-in.
func SkipUnlessEvals(tb testing.TB) {
	tb.Helper()
	if os.Getenv("GOEVALS") == "" {
		tb.Skip("set GOEVALS to run LLM eval tests")
	}
}

// Compile-time interface verification.
var _ Judge = (*GeneratorJudge)(nil)

// GeneratorJudge implements Judge on any generation back-end by asking
// for a structured verdict.
type GeneratorJudge struct {
	gen gitscribe.Generator
}

// NewGeneratorJudge creates a judge over a generation back-end.
func NewGeneratorJudge(gen gitscribe.Generator) *GeneratorJudge {
	return &GeneratorJudge{gen: gen}
}

const judgeSystemPrompt = `You are a strict evaluator. Given a criterion and an output, decide whether the output satisfies the criterion. Respond with only a JSON object of the form {"passed": true|false, "reasoning": "..."} and nothing else.`

// Judge asks the back-end for a verdict and parses its JSON response.
func (j *GeneratorJudge) Judge(ctx context.Context, criterion, output string) (*Result, error) {
	prompt := fmt.Sprintf("Criterion:\n%s\n\nOutput:\n%s", criterion, output)

	resp, err := j.gen.Generate(ctx, gitscribe.GenerationRequest{
		Prompt: prompt,
		System: judgeSystemPrompt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "judge generation")
	}

	var result Result
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &result); err != nil {
		return nil, errors.Wrapf(err, "parse judge verdict %q", resp.Content)
	}
	return &result, nil
}

// stripFences removes a surrounding markdown code fence, which some
// models add despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
