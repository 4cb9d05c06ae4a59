package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

// chatServer answers every chat completion with reply and records the last request
func chatServer(t *testing.T, status int, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if got != nil {
			if err := json.Unmarshal(body, got); err != nil {
				t.Errorf("unmarshal body: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func testClient(url string) *OpenAI {
	return NewOpenAI(Config{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "smart",
		FastModel:  "fast",
		MaxRetries: 1,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestOptimize(t *testing.T) {
	var req chatRequest
	server := chatServer(t, http.StatusOK, "  Better prompt  ", &req)

	got, err := testClient(server.URL).Optimize(context.Background(), models.Prompt{Objective: "Sell", Content: "old"})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if got != "Better prompt" {
		t.Fatalf("unexpected result %q", got)
	}
	if req.Model != "smart" {
		t.Fatalf("expected reasoning model, got %q", req.Model)
	}
	if !strings.Contains(string(req.Messages[0].Content), "Objetivo: Sell") {
		t.Fatalf("objective missing from request: %s", req.Messages[0].Content)
	}
}

func TestOptimizeKeepsContentOnEmptyAnswer(t *testing.T) {
	server := chatServer(t, http.StatusOK, "", nil)

	got, err := testClient(server.URL).Optimize(context.Background(), models.Prompt{Content: "keep me"})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if got != "keep me" {
		t.Fatalf("expected original content, got %q", got)
	}
}

func TestOptimizeFailure(t *testing.T) {
	server := chatServer(t, http.StatusBadRequest, "", nil)

	_, err := testClient(server.URL).Optimize(context.Background(), models.Prompt{})
	if !errors.HasCode(err, errors.ErrCodeEnrichFailure) {
		t.Fatalf("expected enrich failure, got %v", err)
	}
}

func TestTags(t *testing.T) {
	var req chatRequest
	server := chatServer(t, http.StatusOK, `"Email, Ventas, Formal"`, &req)

	tags, err := testClient(server.URL).Tags(context.Background(), "Vender", models.CategoryMarketing)
	if err != nil {
		t.Fatalf("Tags() error = %v", err)
	}
	want := []string{"Email", "Ventas", "Formal"}
	if strings.Join(tags, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", tags, want)
	}
	if req.Model != "fast" {
		t.Fatalf("expected fast model, got %q", req.Model)
	}
}

func TestTagsFallback(t *testing.T) {
	server := chatServer(t, http.StatusBadRequest, "", nil)

	tags, err := testClient(server.URL).Tags(context.Background(), "x", "")
	if err != nil {
		t.Fatalf("Tags() must not fail, got %v", err)
	}
	if strings.Join(tags, ",") != "AI,Productivity" {
		t.Fatalf("expected fallback tags, got %v", tags)
	}
}

func TestExtractSingleFromFencedJSON(t *testing.T) {
	reply := "Aquí está:\n```json\n{\"name\":\"Resumen\",\"content\":\"Resume [Texto]\",\"tags\":[\"a\"]}\n```"
	server := chatServer(t, http.StatusOK, reply, nil)

	drafts, err := testClient(server.URL).Extract(context.Background(), "notes.txt", []byte("some notes"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(drafts) != 1 || drafts[0].Name != "Resumen" || drafts[0].Content != "Resume [Texto]" {
		t.Fatalf("unexpected drafts %+v", drafts)
	}
}

func TestExtractBatchWithMissingFields(t *testing.T) {
	server := chatServer(t, http.StatusOK, `[{"name":"A"},{"content":"only content"}]`, nil)

	drafts, err := testClient(server.URL).Extract(context.Background(), "batch.md", []byte("x"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(drafts) != 2 || drafts[1].Content != "only content" {
		t.Fatalf("unexpected drafts %+v", drafts)
	}
}

func TestExtractRejectsInvalidShape(t *testing.T) {
	for _, reply := range []string{"no json here", `{"tags":"not-a-list"}`, `"just a string"`} {
		server := chatServer(t, http.StatusOK, reply, nil)
		_, err := testClient(server.URL).Extract(context.Background(), "f.txt", []byte("x"))
		if !errors.HasCode(err, errors.ErrCodeEnrichFailure) {
			t.Fatalf("reply %q: expected enrich failure, got %v", reply, err)
		}
	}
}

func TestExtractSendsImagesAsDataURL(t *testing.T) {
	var req chatRequest
	server := chatServer(t, http.StatusOK, `{"name":"From image"}`, &req)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	if _, err := testClient(server.URL).Extract(context.Background(), "shot.png", png); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(string(req.Messages[0].Content), "data:image/png;base64,") {
		t.Fatalf("expected image part, got %s", req.Messages[0].Content)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	_, err := testClient("http://127.0.0.1:1").Extract(context.Background(), "f", nil)
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSpeak(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	var out bytes.Buffer
	if err := testClient(server.URL).Speak(context.Background(), "Hola", &out); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if out.String() != "mp3-bytes" {
		t.Fatalf("unexpected audio %q", out.String())
	}
	if got, _ := payload["voice"].(string); got != "onyx" {
		t.Fatalf("expected default voice, got %q", got)
	}

	if err := testClient(server.URL).Speak(context.Background(), "   ", &out); err != nil {
		t.Fatalf("empty text should be a no-op, got %v", err)
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(`"SEO, Blog.,  , 'Copy'"`)
	if strings.Join(got, "|") != "SEO|Blog|Copy" {
		t.Fatalf("unexpected tags %v", got)
	}
}
