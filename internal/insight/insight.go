// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package insight turns unstructured paper text into schema-validated
// PaperInsight and ComparisonInsight values by prompting an LLM in JSON
// mode. Generation is total: every failure collapses into a well-defined
// fallback object, never an error.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/llm"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Input limits, in characters, applied before prompting.
const (
	MaxPaperChars      = 25000
	MaxComparisonChars = 40000
)

// Fallback field values.
const (
	FallbackBackground        = "Error parsing model response"
	FallbackText              = "Error"
	FallbackCritique          = "Failed to generate valid JSON."
	FallbackComparisonFinding = "Failed to generate comparison."
	rawErrorPrefix            = "Raw Error: "
)

// errEmptyInput marks generation skipped because there was no text.
var errEmptyInput = errors.New("empty input text")

// Generator produces paper and comparison insights with one model.
type Generator struct {
	LLM    llm.Completer
	Model  string
	Logger *zap.Logger
}

// GenerateInsight analyzes one paper. The result is always fully populated;
// on failure it is PaperFallback(err) with MethodologyScore 0.
func (g *Generator) GenerateInsight(ctx context.Context, text string) types.PaperInsight {
	ins, err := g.paperInsight(ctx, text)
	if err != nil {
		g.logger().Warn("paper insight generation failed", zap.Int("input_chars", len(text)), zap.Error(err))
		return PaperFallback(err)
	}
	return ins
}

// GenerateComparison compares several papers from their concatenated text.
// The result is always fully populated.
func (g *Generator) GenerateComparison(ctx context.Context, papersText string) types.ComparisonInsight {
	cmp, err := g.comparison(ctx, papersText)
	if err != nil {
		g.logger().Warn("comparison generation failed", zap.Int("input_chars", len(papersText)), zap.Error(err))
		return ComparisonFallback()
	}
	return cmp
}

// PaperFallback is the insight returned when generation fails.
func PaperFallback(err error) types.PaperInsight {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return types.PaperInsight{
		Background:          FallbackBackground,
		Methods:             FallbackText,
		Results:             FallbackText,
		Conclusions:         FallbackText,
		KeyFindings:         []string{rawErrorPrefix + msg},
		MethodologyScore:    0,
		MethodologyCritique: FallbackCritique,
	}
}

// ComparisonFallback is the comparison returned when generation fails.
func ComparisonFallback() types.ComparisonInsight {
	return types.ComparisonInsight{
		Title:       FallbackText,
		Hypothesis:  FallbackText,
		Methodology: FallbackText,
		TabularData: FallbackText,
		Conclusion:  FallbackText,
		KeyFindings: []string{FallbackComparisonFinding},
	}
}

// ComparisonFailed reports whether c is the comparison fallback.
func ComparisonFailed(c types.ComparisonInsight) bool {
	return reflect.DeepEqual(c, ComparisonFallback())
}

func (g *Generator) paperInsight(ctx context.Context, text string) (types.PaperInsight, error) {
	raw, err := g.complete(ctx, paperPrompt, paperUserPrefix, text, MaxPaperChars)
	if err != nil {
		return types.PaperInsight{}, err
	}
	return decodePaperInsight(raw)
}

func (g *Generator) comparison(ctx context.Context, text string) (types.ComparisonInsight, error) {
	raw, err := g.complete(ctx, comparisonPrompt, comparisonUserPrefix, text, MaxComparisonChars)
	if err != nil {
		return types.ComparisonInsight{}, err
	}
	return decodeComparison(raw)
}

func (g *Generator) complete(ctx context.Context, p promptData, prefix, text string, limit int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errEmptyInput
	}
	if g == nil || g.LLM == nil {
		return "", errors.New("no completion client configured")
	}
	system, err := renderSystemPrompt(p)
	if err != nil {
		return "", err
	}
	out, err := g.LLM.Complete(ctx, llm.Request{
		Model:    g.Model,
		Messages: []llm.Message{llm.System(system), llm.User(prefix + Truncate(text, limit))},
		JSON:     true,
	})
	if err != nil {
		return "", err
	}
	return CleanJSON(out), nil
}

func (g *Generator) logger() *zap.Logger {
	if g == nil || g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

var jsonFence = regexp.MustCompile("```json\\s*")

// CleanJSON strips markdown code fences from a model response. An empty
// response becomes "{}" so decoding fails on missing fields rather than
// on syntax.
func CleanJSON(s string) string {
	if s == "" {
		return "{}"
	}
	s = jsonFence.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// rawPaperInsight mirrors PaperInsight with pointers so that absent fields
// can be detected.
type rawPaperInsight struct {
	Background          *string   `json:"background"`
	Methods             *string   `json:"methods"`
	Results             *string   `json:"results"`
	Conclusions         *string   `json:"conclusions"`
	KeyFindings         *[]string `json:"key_findings"`
	MethodologyScore    *score    `json:"methodology_score"`
	MethodologyCritique *string   `json:"methodology_critique"`
}

// score accepts a JSON number or a string holding one. Models sometimes
// quote the methodology score.
type score float64

func (sc *score) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*sc = score(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("methodology_score %s is not a number", b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return fmt.Errorf("methodology_score %q is not a number", str)
	}
	*sc = score(f)
	return nil
}

func decodePaperInsight(s string) (types.PaperInsight, error) {
	var raw rawPaperInsight
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return types.PaperInsight{}, fmt.Errorf("decoding paper insight: %w", err)
	}

	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("background", raw.Background != nil)
	check("methods", raw.Methods != nil)
	check("results", raw.Results != nil)
	check("conclusions", raw.Conclusions != nil)
	check("key_findings", raw.KeyFindings != nil && *raw.KeyFindings != nil)
	check("methodology_score", raw.MethodologyScore != nil)
	check("methodology_critique", raw.MethodologyCritique != nil)
	if len(missing) > 0 {
		return types.PaperInsight{}, fmt.Errorf("paper insight missing fields: %s", strings.Join(missing, ", "))
	}

	n := float64(*raw.MethodologyScore)
	if n != math.Trunc(n) || n < 1 || n > 10 {
		return types.PaperInsight{}, fmt.Errorf("methodology_score %v outside 1-10", n)
	}

	return types.PaperInsight{
		Background:          *raw.Background,
		Methods:             *raw.Methods,
		Results:             *raw.Results,
		Conclusions:         *raw.Conclusions,
		KeyFindings:         *raw.KeyFindings,
		MethodologyScore:    int(n),
		MethodologyCritique: *raw.MethodologyCritique,
	}, nil
}

type rawComparison struct {
	Title       *string   `json:"title"`
	Hypothesis  *string   `json:"hypothesis"`
	Methodology *string   `json:"methodology"`
	TabularData *string   `json:"tabular_data"`
	Conclusion  *string   `json:"conclusion"`
	KeyFindings *[]string `json:"key_findings"`
}

func decodeComparison(s string) (types.ComparisonInsight, error) {
	var raw rawComparison
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return types.ComparisonInsight{}, fmt.Errorf("decoding comparison: %w", err)
	}

	var missing []string
	for name, present := range map[string]bool{
		"title":        raw.Title != nil,
		"hypothesis":   raw.Hypothesis != nil,
		"methodology":  raw.Methodology != nil,
		"tabular_data": raw.TabularData != nil,
		"conclusion":   raw.Conclusion != nil,
		"key_findings": raw.KeyFindings != nil && *raw.KeyFindings != nil,
	} {
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return types.ComparisonInsight{}, fmt.Errorf("comparison missing fields: %s", strings.Join(missing, ", "))
	}

	return types.ComparisonInsight{
		Title:       *raw.Title,
		Hypothesis:  *raw.Hypothesis,
		Methodology: *raw.Methodology,
		TabularData: *raw.TabularData,
		Conclusion:  *raw.Conclusion,
		KeyFindings: *raw.KeyFindings,
	}, nil
}
