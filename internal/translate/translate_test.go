package translate_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Shiro005/electionapp-sub000/internal/translate"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newServer(t *testing.T, hits *atomic.Int64, response string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		fmt.Fprint(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranslateEmptyInputSkipsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := newServer(t, &hits, `[[["x","x"]]]`, http.StatusOK)
	tr := translate.New(srv.URL, zerolog.Nop())

	assert.Empty(t, tr.Translate(context.Background(), "", "mr"))
	assert.Empty(t, tr.Translate(context.Background(), "   ", "mr"))
	assert.Zero(t, hits.Load())
}

func TestTranslateSuccessAndCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := newServer(t, &hits, `[[["राम शर्मा","Ram Sharma",null,null,10]],null,"en"]`, http.StatusOK)
	tr := translate.New(srv.URL, zerolog.Nop())

	got := tr.Translate(context.Background(), "Ram Sharma", "mr")
	assert.Equal(t, "राम शर्मा", got)

	// Second call for the same (text, language) pair is served from cache.
	got = tr.Translate(context.Background(), "Ram Sharma", "mr")
	assert.Equal(t, "राम शर्मा", got)
	assert.Equal(t, int64(1), hits.Load())
}

func TestTranslateJoinsSentenceChunks(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := newServer(t, &hits, `[[["नमस्कार. ","Hello. "],["जग","World"]],null,"en"]`, http.StatusOK)
	tr := translate.New(srv.URL, zerolog.Nop())

	assert.Equal(t, "नमस्कार. जग", tr.Translate(context.Background(), "Hello. World", "mr"))
}

func TestTranslateFallsBackToOriginal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		status   int
	}{
		{name: "server error", response: "oops", status: http.StatusInternalServerError},
		{name: "malformed body", response: "{not json", status: http.StatusOK},
		{name: "empty payload", response: "[]", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int64
			srv := newServer(t, &hits, tt.response, tt.status)
			tr := translate.New(srv.URL, zerolog.Nop())

			assert.Equal(t, "Town Hall", tr.Translate(context.Background(), "Town Hall", "mr"))
		})
	}
}

func TestTranslateFailureIsNotCached(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := newServer(t, &hits, "oops", http.StatusBadGateway)
	tr := translate.New(srv.URL, zerolog.Nop())

	tr.Translate(context.Background(), "Booth 12", "mr")
	tr.Translate(context.Background(), "Booth 12", "mr")
	assert.Equal(t, int64(2), hits.Load(), "failed lookups must retry, not cache the fallback")
}
