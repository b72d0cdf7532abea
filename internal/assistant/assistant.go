// Package assistant answers treasurer questions about the ledger with a
// Gemini model, grounded on a JSON snapshot of members, collections and the
// payment statuses of active collections.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"treasury-backend/internal/extraction"
	"treasury-backend/internal/ledger"
	"treasury-backend/internal/models"
)

type Mode string

const (
	ModeFast     Mode = "fast"
	ModeThinking Mode = "thinking"
	ModeSearch   Mode = "search"
)

// ErrUnknownMode is returned for a mode outside fast, thinking and search.
var ErrUnknownMode = errors.New("unknown assistant mode")

type modeConfig struct {
	model          string
	thinkingBudget int32
	search         bool
}

var modes = map[Mode]modeConfig{
	ModeFast:     {model: "gemini-flash-lite-latest"},
	ModeThinking: {model: "gemini-2.5-pro", thinkingBudget: 32768},
	ModeSearch:   {model: "gemini-2.5-flash", search: true},
}

// ParseMode defaults an empty mode to fast.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeFast, nil
	}
	m := Mode(s)
	if _, ok := modes[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Source is a web page a search-mode answer was grounded on.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type Reply struct {
	Mode    Mode     `json:"mode"`
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

const persona = "You are a helpful and friendly AI assistant for a class treasurer. Your name is Sparky. " +
	"Use the provided JSON data to answer questions about collections, payments, and students. " +
	"Be concise and clear. Format your answers using Markdown. Do not mention the JSON data source unless asked."

type contextMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type contextCollection struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	AmountPerUser decimal.Decimal `json:"amountPerUser"`
	Deadline      string          `json:"deadline"`
	IsRemitted    bool            `json:"isRemitted"`
}

type contextStatus struct {
	PaidAmount decimal.Decimal `json:"paidAmount"`
	Status     string          `json:"status"`
}

type instructionContext struct {
	CurrentDate     string                              `json:"currentDate"`
	Users           []contextMember                     `json:"users"`
	Collections     []contextCollection                 `json:"collections"`
	PaymentStatuses map[string]map[string]contextStatus `json:"paymentStatuses"`
}

// Instruction renders the system instruction for snap. Payment statuses are
// limited to collections that are not yet remitted; members without a
// record for an active collection are listed as Unpaid with zero paid.
func Instruction(snap ledger.Snapshot, today time.Time) (string, error) {
	ctx := instructionContext{
		CurrentDate:     today.Format("2006-01-02"),
		Users:           make([]contextMember, 0, len(snap.Members)),
		Collections:     make([]contextCollection, 0, len(snap.Collections)),
		PaymentStatuses: make(map[string]map[string]contextStatus, len(snap.Members)),
	}
	for _, m := range snap.Members {
		ctx.Users = append(ctx.Users, contextMember{ID: m.ID, Name: m.Name})
	}

	var active []models.Collection
	for _, c := range snap.Collections {
		cc := contextCollection{ID: c.ID, Name: c.Name, AmountPerUser: c.AmountPerUser, IsRemitted: c.IsRemitted()}
		if c.Deadline != nil {
			cc.Deadline = c.Deadline.Format("2006-01-02")
		}
		ctx.Collections = append(ctx.Collections, cc)
		if !c.IsRemitted() {
			active = append(active, c)
		}
	}

	for _, m := range snap.Members {
		byCollection := make(map[string]contextStatus, len(active))
		for _, c := range active {
			paid := ledger.PaidAmount(snap.Statuses, m.ID, c.ID)
			byCollection[c.ID] = contextStatus{
				PaidAmount: paid,
				Status:     string(ledger.Display(paid, c.AmountPerUser)),
			}
		}
		ctx.PaymentStatuses[m.ID] = byCollection
	}

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode assistant context: %w", err)
	}
	return persona + "\n\nContext:\n" + string(data), nil
}

// Assistant sends one question per call; the conversation so far travels
// with it as history. Errors carry the extraction failure classes.
type Assistant struct {
	client *genai.Client
}

// New returns an Assistant over client. A nil client answers every call
// with extraction.ErrNotConfigured.
func New(client *genai.Client) *Assistant {
	return &Assistant{client: client}
}

func (a *Assistant) Ask(ctx context.Context, mode Mode, instruction string, history []models.ChatTurn, message string) (*Reply, error) {
	if a.client == nil {
		return nil, fmt.Errorf("assistant: %w", extraction.ErrNotConfigured)
	}
	mc, ok := modes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(instruction)}},
	}
	if mc.thinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(mc.thinkingBudget)}
	}
	if mc.search {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(t.Role)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := a.client.Models.GenerateContent(ctx, mc.model, contents, config)
	if err != nil {
		return nil, extraction.ClassifyError(ctx, err)
	}
	text, err := extraction.ResponseText(resp)
	if err != nil {
		return nil, err
	}
	return &Reply{Mode: mode, Text: text, Sources: sources(resp)}, nil
}

func sources(resp *genai.GenerateContentResponse) []Source {
	out := []Source{}
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return out
	}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out = append(out, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}
