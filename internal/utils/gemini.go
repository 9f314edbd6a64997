package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrAIDisabled = errors.New("ai client is not configured")

const maxQuestionImageBytes = 8 << 20

type GeminiClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

func NewGeminiClient(apiKey, model, baseURL string) *GeminiClient {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GeminiClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type GeminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GeminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *GeminiBlob `json:"inlineData,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content GeminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateContent sends the conversation and returns the concatenated text of the first candidate.
func (c *GeminiClient) GenerateContent(ctx context.Context, contents []GeminiContent) (string, GeminiUsage, error) {
	if c == nil || c.APIKey == "" {
		return "", GeminiUsage{}, ErrAIDisabled
	}
	body, err := json.Marshal(map[string]any{"contents": contents})
	if err != nil {
		return "", GeminiUsage{}, fmt.Errorf("gemini marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.BaseURL, url.PathEscape(c.Model), url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", GeminiUsage{}, fmt.Errorf("gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", GeminiUsage{}, fmt.Errorf("gemini call: %w", err)
	}
	defer resp.Body.Close()

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", GeminiUsage{}, fmt.Errorf("gemini parse response: %w", err)
	}
	if out.Error != nil {
		return "", GeminiUsage{}, fmt.Errorf("gemini error %d: %s", out.Error.Code, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", GeminiUsage{}, fmt.Errorf("gemini http %d", resp.StatusCode)
	}
	if len(out.Candidates) == 0 {
		return "", GeminiUsage{}, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	usage := GeminiUsage{
		PromptTokens:     out.UsageMetadata.PromptTokenCount,
		CompletionTokens: out.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      out.UsageMetadata.TotalTokenCount,
	}
	return sb.String(), usage, nil
}

// FetchImage downloads an image and returns it as an inline part.
func (c *GeminiClient) FetchImage(ctx context.Context, imageURL string) (GeminiPart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return GeminiPart{}, fmt.Errorf("image request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return GeminiPart{}, fmt.Errorf("image fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GeminiPart{}, fmt.Errorf("image fetch: http %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxQuestionImageBytes))
	if err != nil {
		return GeminiPart{}, fmt.Errorf("image read: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return GeminiPart{InlineData: &GeminiBlob{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}}, nil
}
