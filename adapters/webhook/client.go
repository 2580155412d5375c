// Package webhook forwards the AI report form to an external automation endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"qareport/internal/errors"
)

// maxReplyBytes caps how much of the endpoint reply is read
const maxReplyBytes = 4 << 20

// messagePaths are where automation endpoints commonly put their text reply
var messagePaths = []string{"message", "output", "text", "0.message", "0.output", "0.text"}

// Submission is the seven-field AI report form
type Submission struct {
	OS       string `json:"os" form:"os"`
	Sheet    string `json:"sheet" form:"sheet"`
	TicketID string `json:"ticketId" form:"ticketId"`
	Module   string `json:"module" form:"module"`
	Summary  string `json:"summary" form:"summary"`
	AC       string `json:"ac" form:"ac"`
	Desc     string `json:"desc" form:"desc"`
}

// Validate checks that every field is filled in
func (s Submission) Validate() error {
	fields := []struct{ name, value string }{
		{"os", s.OS}, {"sheet", s.Sheet}, {"ticketId", s.TicketID}, {"module", s.Module},
		{"summary", s.Summary}, {"ac", s.AC}, {"desc", s.Desc},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errors.ValidationError("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// Reply is the endpoint's answer: the body as received plus a readable rendering
type Reply struct {
	StatusCode int
	Raw        []byte
	Pretty     string
	Message    string
	HTML       template.HTML
}

// Client posts submissions to one endpoint
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the endpoint URL
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Submit sends the form as JSON and returns the reply verbatim
func (c *Client) Submit(ctx context.Context, sub Submission) (*Reply, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if c.url == "" {
		return nil, errors.ConfigInvalid("WEBHOOK_URL is not configured")
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode submission")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("webhook", err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	resp.Body.Close()
	if err != nil {
		return nil, errors.ExternalServiceError("webhook", fmt.Errorf("failed to read response: %w", err))
	}
	log.Printf("[Webhook] ticket %s answered %d in %dms (%d bytes)",
		sub.TicketID, resp.StatusCode, time.Since(start).Milliseconds(), len(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.ExternalServiceError("webhook",
			fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return NewReply(resp.StatusCode, body), nil
}

// NewReply renders a reply body: JSON is indented, and a text message field is rendered as Markdown
func NewReply(status int, body []byte) *Reply {
	r := &Reply{StatusCode: status, Raw: body}
	if gjson.ValidBytes(body) {
		r.Pretty = string(pretty.Pretty(body))
		for _, path := range messagePaths {
			if res := gjson.GetBytes(body, path); res.Type == gjson.String && res.Str != "" {
				r.Message = res.Str
				break
			}
		}
	} else {
		r.Pretty = string(body)
		r.Message = strings.TrimSpace(string(body))
	}
	if r.Message != "" {
		r.HTML = RenderMarkdown(r.Message)
	}
	return r
}

// RenderMarkdown converts Markdown to HTML, dropping any raw HTML in the source
func RenderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(md), p, renderer))
}
