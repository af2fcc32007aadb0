// Package translate localizes voter fields before they are drawn onto the
// receipt. Translation is strictly best-effort: any failure falls back to
// the original text so a flaky network can never block a print.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// DefaultEndpoint is the public translate endpoint the original deployment
// relied on.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// cacheSize bounds the in-memory cache. The original kept an unbounded
// map; an LRU cap keeps long canvassing sessions from growing memory
// forever.
const cacheSize = 512

// Translator caches translations process-wide, keyed by text and target
// language.
type Translator struct {
	client   *http.Client
	endpoint string
	cache    *lru.Cache[string, string]
	log      zerolog.Logger
}

func New(endpoint string, log zerolog.Logger) *Translator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	cache, _ := lru.New[string, string](cacheSize)
	return &Translator{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		cache:    cache,
		log:      log.With().Str("component", "translate").Logger(),
	}
}

// Translate returns text localized to the target language, or the original
// text when the remote call fails. Empty input returns an empty string
// without touching the network.
func (t *Translator) Translate(ctx context.Context, text, targetLang string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	key := targetLang + "\x00" + text
	if cached, ok := t.cache.Get(key); ok {
		return cached
	}

	translated, err := t.remote(ctx, text, targetLang)
	if err != nil {
		t.log.Warn().Err(err).Str("text", text).Msg("translation failed, keeping original")
		return text
	}
	t.cache.Add(key, translated)
	return translated
}

// remote performs one translation request. The endpoint answers with a
// nested JSON array; the translated sentence chunks live at [0][n][0].
func (t *Translator) remote(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "en")
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("translate: build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("translate: read response: %w", err)
	}
	return parseResponse(body)
}

func parseResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("translate: empty response")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("translate: decode segments: %w", err)
	}

	var sb strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var chunk string
		if err := json.Unmarshal(segment[0], &chunk); err != nil {
			continue
		}
		sb.WriteString(chunk)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("translate: no translated text in response")
	}
	return sb.String(), nil
}
