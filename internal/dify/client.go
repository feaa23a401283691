// Package dify calls a Dify-compatible chat API for additional writing
// suggestions. The integration is best-effort: an unconfigured or failing
// service never blocks job completion.
package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func New(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Enabled reports whether an API key is configured. A disabled client
// returns no suggestions and no error.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Inputs         map[string]any `json:"inputs"`
	Query          string         `json:"query"`
	ResponseMode   string         `json:"response_mode"`
	ConversationID string         `json:"conversation_id"`
	User           string         `json:"user"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// Suggest sends the document text for review and parses the bullet lines of
// the answer into suggestion strings.
func (c *Client) Suggest(ctx context.Context, paragraphs []string) ([]string, error) {
	if !c.Enabled() {
		return nil, nil
	}

	prompt := "Analyze the following document and provide improvement suggestions as a bullet list. " +
		"Cover writing style, content structure, grammar and clarity.\n\nDocument Content:\n" +
		strings.Join(paragraphs, "\n\n")

	raw, err := json.Marshal(chatRequest{
		Inputs:       map[string]any{},
		Query:        prompt,
		ResponseMode: "blocking",
		User:         "minddoc_user",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat-messages", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call dify: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dify status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parseSuggestions(out.Answer), nil
}

func parseSuggestions(answer string) []string {
	suggestions := []string{}
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*") {
			s := strings.TrimSpace(strings.TrimLeft(line, "-•*"))
			if s != "" {
				suggestions = append(suggestions, s)
			}
		}
	}
	return suggestions
}
