package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/newthinker/signalhub/internal/core"
)

type wireResult struct {
	Patterns   []string `json:"patterns"`
	Trend      *string  `json:"trend"`
	Indicators *struct {
		RSI    *string `json:"rsi"`
		Volume *string `json:"volume"`
	} `json:"indicators"`
	Recommendation  *string  `json:"recommendation"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	Summary         *string  `json:"summary"`
}

// decodeResult parses a model response into an AnalysisResult. Markdown code
// fences around the document are tolerated; missing fields are not.
func decodeResult(content string) (*core.AnalysisResult, error) {
	text := stripFences(content)
	if text == "" {
		return nil, errors.New("empty response")
	}

	var w wireResult
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	var missing []string
	if w.Patterns == nil {
		missing = append(missing, "patterns")
	}
	if w.Trend == nil {
		missing = append(missing, "trend")
	}
	if w.Indicators == nil || w.Indicators.RSI == nil || w.Indicators.Volume == nil {
		missing = append(missing, "indicators")
	}
	if w.Recommendation == nil {
		missing = append(missing, "recommendation")
	}
	if w.ConfidenceScore == nil {
		missing = append(missing, "confidenceScore")
	}
	if w.Summary == nil {
		missing = append(missing, "summary")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("response missing %s", strings.Join(missing, ", "))
	}

	rec := strings.ToUpper(strings.TrimSpace(*w.Recommendation))
	switch rec {
	case core.RecommendationBuy, core.RecommendationSell, core.RecommendationWait:
	default:
		return nil, fmt.Errorf("unknown recommendation %q", *w.Recommendation)
	}

	return &core.AnalysisResult{
		Patterns: w.Patterns,
		Trend:    *w.Trend,
		Indicators: core.Indicators{
			RSI:    *w.Indicators.RSI,
			Volume: *w.Indicators.Volume,
		},
		Recommendation:  rec,
		ConfidenceScore: min(max(*w.ConfidenceScore, 0), 100),
		Summary:         *w.Summary,
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // language tag
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
