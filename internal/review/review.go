// Package review drafts manual-review briefs for conflicts that cannot be
// resolved automatically, using Claude when an API key is configured.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/pkg/xmlutil"
)

// reviewMaxTokens bounds the brief Claude may write.
const reviewMaxTokens = 512

// reviewPromptTemplate embeds conflict data only through xmlutil.Element.
const reviewPromptTemplate = `You help IT administrators decide on asset assignment conflicts.

Write a short brief for the reviewer: one or two sentences summarising the problem
and an ordered checklist of what to verify before approving or rejecting.
Use only the facts below; do not invent employees, assets or dates.

Return ONLY a JSON object with this exact schema:
{"summary": "<text>", "checklist": ["<step>", "..."]}

%s

<proposals>
%s</proposals>`

// Brief is a reviewer-facing explanation of one conflict.
type Brief struct {
	ConflictID string   `json:"conflict_id"`
	Summary    string   `json:"summary"`
	Checklist  []string `json:"checklist"`
	Generated  bool     `json:"generated"`
}

type briefResponse struct {
	Summary   string   `json:"summary"`
	Checklist []string `json:"checklist"`
}

// messageCreator is the slice of the Anthropic client the reviewer needs.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Reviewer drafts briefs. On a missing key, API error or unparsable answer
// it falls back to a brief built from the proposals' own steps, so Draft
// always returns something usable.
type Reviewer struct {
	messages messageCreator
	model    string
	logger   *slog.Logger
}

// NewReviewer creates a reviewer. An empty apiKey disables the Claude call.
func NewReviewer(apiKey, model string, logger *slog.Logger) *Reviewer {
	r := &Reviewer{model: model, logger: logger}
	if apiKey != "" {
		c := anthropic.NewClient(option.WithAPIKey(apiKey))
		r.messages = &c.Messages
	}
	return r
}

// Draft returns a review brief for c.
func (r *Reviewer) Draft(ctx context.Context, c models.Conflict, proposals []models.ResolutionProposal) Brief {
	fallback := fallbackBrief(c, proposals)
	if r.messages == nil {
		return fallback
	}

	var sb strings.Builder
	for i := range proposals {
		p := &proposals[i]
		sb.WriteString(xmlutil.Element("proposal", strings.Join(p.Steps, "; "),
			"strategy", string(p.Strategy),
			"confidence", strconv.FormatFloat(p.Confidence, 'f', 2, 64),
			"automated", strconv.FormatBool(p.Automated)))
		sb.WriteString("\n")
	}
	conflict := xmlutil.Element("conflict", c.Description,
		"dimension", string(c.Dimension), "severity", string(c.Severity), "cause", string(c.Cause))
	prompt := fmt.Sprintf(reviewPromptTemplate, conflict, sb.String())

	resp, err := r.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: reviewMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: "You are a concise IT asset management assistant. Output only valid JSON."},
		},
	})
	if err != nil {
		r.logger.Warn("review: Claude API call failed, using step list", "conflict_id", c.ID, "error", err)
		return fallback
	}

	var text string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			text = strings.TrimSpace(resp.Content[i].Text)
			break
		}
	}
	if text == "" {
		r.logger.Warn("review: empty response from Claude, using step list", "conflict_id", c.ID)
		return fallback
	}

	var parsed briefResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed.Summary == "" {
		r.logger.Warn("review: could not parse Claude response, using step list",
			"conflict_id", c.ID, "response", text, "error", err)
		return fallback
	}

	return Brief{
		ConflictID: c.ID,
		Summary:    parsed.Summary,
		Checklist:  parsed.Checklist,
		Generated:  true,
	}
}

func fallbackBrief(c models.Conflict, proposals []models.ResolutionProposal) Brief {
	b := Brief{
		ConflictID: c.ID,
		Summary:    fmt.Sprintf("%s %s conflict: %s", c.Severity, strings.ReplaceAll(string(c.Dimension), "_", " "), c.Description),
		Checklist:  []string{},
	}
	for i := range proposals {
		b.Checklist = append(b.Checklist, proposals[i].Steps...)
	}
	return b
}
