package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/signalhub/internal/archive"
	"github.com/newthinker/signalhub/internal/config"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

const validResponse = `{
  "patterns": ["Engolfo de alta"],
  "trend": "Alta",
  "indicators": {"rsi": "Neutro (55)", "volume": "Acima da média"},
  "recommendation": "ALTA",
  "confidenceScore": 82,
  "summary": "Engolfo de alta com volume crescente sugere continuação."
}`

type fakeProvider struct {
	mu       sync.Mutex
	content  string
	err      error
	requests []llm.ChatRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.content}, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	analyses []string
	archives []string
}

func (r *fakeRecorder) RecordAnalysis(provider, status string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, provider+":"+status)
}

func (r *fakeRecorder) RecordArchive(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives = append(r.archives, status)
}

func TestAnalyzeChart_Success(t *testing.T) {
	p := &fakeProvider{content: validResponse}
	rec := &fakeRecorder{}
	a := NewWithProvider(p, config.LLMConfig{}, nil)
	a.SetRecorder(rec)

	res, err := a.AnalyzeChart(context.Background(), llm.Image{Data: pngHeader})
	require.NoError(t, err)

	assert.Equal(t, []string{"Engolfo de alta"}, res.Patterns)
	assert.Equal(t, "Alta", res.Trend)
	assert.Equal(t, "Neutro (55)", res.Indicators.RSI)
	assert.Equal(t, core.RecommendationBuy, res.Recommendation)
	assert.Equal(t, 82.0, res.ConfidenceScore)
	assert.Equal(t, []string{"fake:ok"}, rec.analyses)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Same(t, ResultSchema, req.Schema)
	assert.True(t, req.JSONMode)
	assert.Contains(t, req.SystemPrompt, "analista de criptomoedas")
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Images, 1)
	assert.Equal(t, "image/png", req.Messages[0].Images[0].MIMEType)
}

func TestAnalyzeChart_FencedResponse(t *testing.T) {
	p := &fakeProvider{content: "```json\n" + validResponse + "\n```"}
	a := NewWithProvider(p, config.LLMConfig{}, nil)

	res, err := a.AnalyzeChart(context.Background(), llm.Image{MIMEType: "image/png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, core.RecommendationBuy, res.Recommendation)
}

func TestAnalyzeChart_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{name: "provider error", err: errors.New("503 service unavailable")},
		{name: "empty response", content: "  "},
		{name: "not json", content: "O gráfico mostra alta."},
		{name: "missing field", content: `{"patterns": [], "trend": "Alta", "recommendation": "ALTA", "confidenceScore": 50, "summary": "x"}`},
		{name: "unknown recommendation", content: strings.Replace(validResponse, `"ALTA"`, `"COMPRAR"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			a := NewWithProvider(&fakeProvider{content: tt.content, err: tt.err}, config.LLMConfig{}, nil)
			a.SetRecorder(rec)

			_, err := a.AnalyzeChart(context.Background(), llm.Image{Data: pngHeader})
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrAnalysisFailed))
			assert.Equal(t, []string{"fake:error"}, rec.analyses)
		})
	}
}

func TestAnalyzeChart_MissingAPIKey(t *testing.T) {
	a := New(config.LLMConfig{Provider: "openai"}, nil)

	_, err := a.AnalyzeChart(context.Background(), llm.Image{Data: pngHeader})
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func TestAnalyzeChart_LazyProvider(t *testing.T) {
	calls := 0
	a := New(config.LLMConfig{}, nil)
	a.newProvider = func(context.Context, config.LLMConfig) (llm.Provider, error) {
		calls++
		return &fakeProvider{content: validResponse}, nil
	}
	assert.Equal(t, 0, calls)

	for i := 0; i < 2; i++ {
		_, err := a.AnalyzeChart(context.Background(), llm.Image{Data: pngHeader})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestAnalyzeChart_InvalidImage(t *testing.T) {
	p := &fakeProvider{content: validResponse}
	a := NewWithProvider(p, config.LLMConfig{}, nil)

	_, err := a.AnalyzeChart(context.Background(), llm.Image{})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	_, err = a.AnalyzeChart(context.Background(), llm.Image{Data: []byte("plain text")})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
	assert.Empty(t, p.requests)
}

func TestAnalyzeChart_RateLimited(t *testing.T) {
	a := NewWithProvider(&fakeProvider{content: validResponse}, config.LLMConfig{RateLimit: 0.001}, nil)

	_, err := a.AnalyzeChart(context.Background(), llm.Image{Data: pngHeader})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = a.AnalyzeChart(ctx, llm.Image{Data: pngHeader})
	assert.Error(t, err)
}

func TestAnalyzeChart_Archives(t *testing.T) {
	fs, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	rec := &fakeRecorder{}

	a := NewWithProvider(&fakeProvider{content: validResponse}, config.LLMConfig{}, nil)
	a.SetArchive(archive.NewChartArchive(fs))
	a.SetRecorder(rec)

	_, err = a.AnalyzeChart(context.Background(), llm.Image{Data: pngHeader})
	require.NoError(t, err)

	keys, err := fs.List(context.Background(), archive.ChartPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Equal(t, []string{"ok"}, rec.archives)
}

type brokenStore struct{ archive.Store }

func (brokenStore) Put(context.Context, string, []byte, string) error {
	return errors.New("read-only")
}

func TestAnalyzeChart_ArchiveFailureIsNotFatal(t *testing.T) {
	rec := &fakeRecorder{}
	a := NewWithProvider(&fakeProvider{content: validResponse}, config.LLMConfig{}, nil)
	a.SetArchive(archive.NewChartArchive(brokenStore{}))
	a.SetRecorder(rec)

	res, err := a.AnalyzeChart(context.Background(), llm.Image{Data: pngHeader})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, []string{"error"}, rec.archives)
}
