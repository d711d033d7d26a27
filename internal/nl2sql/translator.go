package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/dataagent/dataagent/internal/llm"
)

type Request struct {
	Question string `json:"question"`
}

type Result struct {
	SQL   string `json:"sql"`
	Raw   string `json:"raw"`
	Model string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

// CompletionTranslator asks a chat model for SQL and extracts the statement
// from its reply. An empty or unusable reply is not an error here; it fails
// later at execution.
type CompletionTranslator struct {
	client llm.Client
	model  string
	schema Schema
}

func NewTranslator(client llm.Client, model string) (*CompletionTranslator, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &CompletionTranslator{client: client, model: model, schema: ShopSchema()}, nil
}

func (t *CompletionTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	raw, err := t.client.Complete(ctx, t.model, BuildSQLPromptForSchema(t.schema, req.Question))
	if err != nil {
		return Result{}, fmt.Errorf("generate sql: %w", err)
	}
	return Result{
		SQL:   ExtractSQL(raw),
		Raw:   raw,
		Model: t.model,
	}, nil
}
