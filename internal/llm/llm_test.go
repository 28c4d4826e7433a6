package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Call(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": `{"clauses":[]}`},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(Config{Endpoint: srv.URL + "/v1", Model: "local-model", APIKey: "k"}, nil)
	require.NoError(t, err)

	out, err := c.Call(context.Background(), "analyze this", "you are a lawyer")
	require.NoError(t, err)
	assert.Equal(t, `{"clauses":[]}`, out)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "analyze this", got.Messages[1].Content)
}

func TestOpenAIClient_CallUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(Config{Endpoint: srv.URL + "/v1", Model: "m"}, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "p", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, APIStatus(err))
}

func TestNewOpenAIClient_RequiresModel(t *testing.T) {
	_, err := NewOpenAIClient(Config{}, nil)
	assert.Error(t, err)
}

func TestAPIStatus_PlainError(t *testing.T) {
	assert.Equal(t, 0, APIStatus(fmt.Errorf("boom")))
}
