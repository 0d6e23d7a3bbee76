package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tree/app/logger"
	"todo-tree/app/models"
)

func TestTemplate(t *testing.T) {
	got, err := Template{}.Propose(context.Background(), "Buy milk", "")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Buy milk - preparation", got[0].Title)
	assert.Equal(t, "Buy milk - review", got[3].Title)
	assert.Contains(t, got[2].Description, "Buy milk")
}

func TestParseProposals(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr string
	}{
		{"plain", `[{"title":"Check fridge","description":"Look"}]`, 1, ""},
		{"fenced", "```json\n[{\"title\":\"A task\"},{\"title\":\"B task\"}]\n```", 2, ""},
		{"not json", "sure, here you go", 0, "decode proposals"},
		{"empty array", `[]`, 0, "schema"},
		{"missing title", `[{"description":"x"}]`, 0, "schema"},
		{"short title", `[{"title":"Go"}]`, 0, "schema"},
		{"blank padded title", `[{"title":"  a  "}]`, 0, "schema"},
		{"three characters", `[{"title":"Mop"}]`, 1, ""},
		{"wrong type", `{"title":"x"}`, 0, "schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProposals(tt.text)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestOpenRouter(t *testing.T) {
	var gotAuth string
	var gotReq openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{
					"role":    "assistant",
					"content": `[{"title":"Check fridge","description":"See what is left"},{"title":"Pick brand","description":"Choose one"}]`,
				}},
			},
		})
	}))
	defer srv.Close()

	o := NewOpenRouter(Config{APIKey: "secret", BaseURL: srv.URL})
	got, err := o.Propose(context.Background(), "Buy milk", "")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, DefaultModel, gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content, "Buy milk")
	assert.Equal(t, []models.ChildProposal{
		{Title: "Check fridge", Description: "See what is left"},
		{Title: "Pick brand", Description: "Choose one"},
	}, got)
}

func TestOpenRouterHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenRouter(Config{APIKey: "secret", BaseURL: srv.URL}).Propose(context.Background(), "Buy milk", "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "openrouter")
	assert.ErrorContains(t, err, "429")
}

// modelServer answers every chat completion with content.
func modelServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestShortModelTitlesFallBackToTemplate(t *testing.T) {
	srv := modelServer(t, `[{"title":"Go","description":"too short"}]`)

	p := New(Config{APIKey: "secret", BaseURL: srv.URL}, logger.Nop())
	got, err := p.Propose(context.Background(), "Buy milk", "")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Buy milk - preparation", got[0].Title)
}

type failing struct{}

func (failing) Propose(context.Context, string, string) ([]models.ChildProposal, error) {
	return nil, errors.New("model unavailable")
}

func TestWithFallback(t *testing.T) {
	p := WithFallback(failing{}, Template{}, logger.Nop())
	got, err := p.Propose(context.Background(), "Buy milk", "")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestNewWithoutKeyUsesTemplate(t *testing.T) {
	assert.IsType(t, Template{}, New(Config{}, logger.Nop()))
}
