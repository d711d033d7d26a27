package nl2sql

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeCompleter struct {
	reply   string
	err     error
	models  []string
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, model, prompt string) (string, error) {
	f.models = append(f.models, model)
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestTranslateExtractsStatement(t *testing.T) {
	client := &fakeCompleter{reply: "```sql\nSELECT COUNT(*) FROM customers\n```"}
	translator, err := NewTranslator(client, "sql-model")
	if err != nil {
		t.Fatalf("NewTranslator() error = %v", err)
	}

	result, err := translator.Translate(context.Background(), Request{Question: "Combien de clients ?"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT COUNT(*) FROM customers" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Model != "sql-model" || client.models[0] != "sql-model" {
		t.Fatalf("model = %q / %q", result.Model, client.models[0])
	}
	if !strings.Contains(client.prompts[0], `"Combien de clients ?"`) {
		t.Fatalf("prompt does not embed question: %s", client.prompts[0])
	}
}

func TestTranslateWrapsCompletionError(t *testing.T) {
	boom := errors.New("upstream down")
	translator, err := NewTranslator(&fakeCompleter{err: boom}, "sql-model")
	if err != nil {
		t.Fatalf("NewTranslator() error = %v", err)
	}
	if _, err := translator.Translate(context.Background(), Request{Question: "q"}); !errors.Is(err, boom) {
		t.Fatalf("Translate() error = %v, want %v", err, boom)
	}
}

func TestNewTranslatorValidatesInputs(t *testing.T) {
	if _, err := NewTranslator(nil, "m"); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewTranslator(&fakeCompleter{}, " "); err == nil {
		t.Fatal("expected error for blank model")
	}
}
