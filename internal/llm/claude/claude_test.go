package claude

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/newthinker/signalhub/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, "be brief", systemPrompt(llm.ChatRequest{SystemPrompt: "be brief"}))

	got := systemPrompt(llm.ChatRequest{
		SystemPrompt: "be brief",
		Schema:       &llm.Schema{Type: llm.TypeObject},
	})
	assert.Contains(t, got, "be brief\n\n")
	assert.Contains(t, got, `{"type":"object"}`)
}

func TestProvider_ChatSendsImage(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "{\"trend\":\"Alta\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	p, err := New("test-key", "claude-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{
			Role:    "user",
			Content: "analise",
			Images:  []llm.Image{{MIMEType: "image/png", Data: []byte("png")}},
		}},
		Schema: &llm.Schema{Type: llm.TypeObject},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"trend":"Alta"}`, resp.Content)
	assert.Equal(t, 12, resp.Usage.InputTokens)

	msgs := body["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	img := content[0].(map[string]any)
	assert.Equal(t, "image", img["type"])
	source := img["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, "cG5n", source["data"])
	assert.Contains(t, body, "system")
}
