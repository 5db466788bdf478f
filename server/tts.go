package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const googleTTSURL = "https://translate.google.com/translate_tts"

// ttsMaxChunk is the text length the endpoint accepts per request.
const ttsMaxChunk = 200

// GoogleTTS implements Synthesizer with the public translate_tts
// endpoint, which returns MP3. Long texts are synthesized in chunks
// split at whitespace and concatenated; MP3 frames tolerate this.
type GoogleTTS struct {
	base   string
	client *http.Client
}

func NewGoogleTTS() *GoogleTTS {
	return &GoogleTTS{
		base:   googleTTSURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("tts: empty text")
	}
	var out []byte
	for _, chunk := range splitChunks(text, ttsMaxChunk) {
		data, err := g.fetchChunk(ctx, chunk, lang)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

func (g *GoogleTTS) fetchChunk(ctx context.Context, text, lang string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", g.base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts endpoint: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// splitChunks breaks text into pieces of at most max bytes, preferring
// whitespace boundaries.
func splitChunks(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}
	var chunks []string
	for len(text) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if text[i-1] == ' ' {
				cut = i
				break
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
