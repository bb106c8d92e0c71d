package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gemini-2.5-flash-lite",
		Timeout: 5 * time.Second,
	})
}

func candidatesResponse(texts ...string) string {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Parts []part `json:"parts"`
	}
	type candidate struct {
		Content content `json:"content"`
	}
	var resp struct {
		Candidates []candidate `json:"candidates"`
	}
	for _, text := range texts {
		resp.Candidates = append(resp.Candidates, candidate{
			Content: content{Parts: []part{{Text: text}}},
		})
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestGenerateText_ConcatenatesAllCandidates(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash-lite:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		io.WriteString(w, candidatesResponse("  Hello", " world  "))
	})

	out, err := client.GenerateText(context.Background(), "greet", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}

func TestGenerateText_SendsInlineImage(t *testing.T) {
	image := []byte{0x89, 0x50, 0x4e, 0x47}

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)

		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "describe", req.Contents[0].Parts[0].Text)

		inline := req.Contents[0].Parts[1].InlineData
		require.NotNil(t, inline)
		assert.Equal(t, "image/png", inline.MIMEType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), inline.Data)

		io.WriteString(w, candidatesResponse("a screenshot"))
	})

	out, err := client.GenerateText(context.Background(), "describe", image)
	require.NoError(t, err)
	assert.Equal(t, "a screenshot", out)
}

func TestGenerateText_TextOnlyOmitsImagePart(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Nil(t, req.Contents[0].Parts[0].InlineData)
		io.WriteString(w, candidatesResponse("ok"))
	})

	_, err := client.GenerateText(context.Background(), "text only", nil)
	require.NoError(t, err)
}

func TestGenerateText_EmptyResponse(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, candidatesResponse("", "   "))
	})

	_, err := client.GenerateText(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateText_NoCandidates(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := client.GenerateText(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateText_BackendError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "quota exceeded")
	})

	_, err := client.GenerateText(context.Background(), "p", nil)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusTooManyRequests, backendErr.Status)
	assert.Equal(t, "quota exceeded", backendErr.Body)
}

func TestGenerateText_SingleAttempt(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.GenerateText(context.Background(), "p", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "no automatic retry")
}

func TestGenerateText_MissingAPIKey(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"})

	_, err := client.GenerateText(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, calls, "rejected before any backend call")
}

func TestGenerateText_ContextCancelled(t *testing.T) {
	started := make(chan struct{})
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can detect the
		// client disconnect and cancel the request context.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := client.GenerateText(ctx, "p", nil)
		errCh <- err
	}()

	<-started
	cancel()

	err := <-errCh
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProbe(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, candidatesResponse("OK"))
	})

	out, err := client.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", out)
}
