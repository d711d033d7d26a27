// Package agent answers natural-language questions about the shop database:
// it generates SQL with one model, runs it, and phrases the rows with a
// second model.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dataagent/dataagent/internal/llm"
	"github.com/dataagent/dataagent/internal/nl2sql"
	"github.com/dataagent/dataagent/internal/observability"
	"github.com/dataagent/dataagent/internal/query"
)

const (
	Sentinel  = nl2sql.Sentinel
	RetryHint = " (attention : génère une requête SQL valide SQLite)"

	RefusalMessage     = "Désolé, je ne peux répondre qu'aux questions concernant les clients, les produits et les commandes."
	FailureMessage     = "Je n’ai pas pu répondre correctement. Merci de reformuler."
	EmptyAnswerMessage = "Aucune information n'a été trouvée."
)

// maxSQLAttempts bounds generation+execution cycles: one try plus one retry.
const maxSQLAttempts = 2

type Config struct {
	SQLModel  string
	ChatModel string
	Logger    *slog.Logger
}

// Agent holds read-only configuration and is safe for concurrent use.
type Agent struct {
	client     llm.Client
	translator nl2sql.Translator
	chatModel  string
	logger     *slog.Logger
}

func New(client llm.Client, cfg Config) (*Agent, error) {
	translator, err := nl2sql.NewTranslator(client, cfg.SQLModel)
	if err != nil {
		return nil, err
	}
	chatModel := strings.TrimSpace(cfg.ChatModel)
	if chatModel == "" {
		return nil, fmt.Errorf("chat model is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{
		client:     client,
		translator: translator,
		chatModel:  chatModel,
		logger:     logger,
	}, nil
}

type Attempt struct {
	Number int    `json:"number"`
	Prompt string `json:"prompt"`
	SQL    string `json:"sql"`
	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`
	Rows   int    `json:"rows"`
}

// Trace records what happened while answering one question.
type Trace struct {
	Outcome     string    `json:"outcome"`
	Attempts    []Attempt `json:"attempts"`
	Generations int       `json:"generations"`
	Executions  int       `json:"executions"`
	AnswerCalls int       `json:"answer_calls"`
}

func (a *Agent) Answer(ctx context.Context, engine query.Engine, question string) (string, error) {
	answer, _, err := a.AnswerWithTrace(ctx, engine, question)
	return answer, err
}

// AnswerWithTrace runs the full flow. Execution problems never surface as
// errors; only completion failures do.
func (a *Agent) AnswerWithTrace(ctx context.Context, engine query.Engine, question string) (string, Trace, error) {
	trace := Trace{}
	finish := func(outcome string) {
		trace.Outcome = outcome
		observability.ObserveQuestion(outcome)
		a.logger.InfoContext(ctx, "question_answered",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("outcome", outcome),
			slog.Int("generations", trace.Generations),
			slog.Int("executions", trace.Executions),
		)
	}

	var rows query.ResultSet
	for number := 1; number <= maxSQLAttempts; number++ {
		prompt := question
		if number > 1 {
			prompt = question + RetryHint
		}
		observability.ObserveSQLAttempt(number)
		a.logger.DebugContext(ctx, "generating_sql", slog.Int("attempt", number))

		sqlText, err := a.GenerateSQL(ctx, prompt)
		trace.Generations++
		if err != nil {
			finish(observability.OutcomeError)
			return "", trace, err
		}
		attempt := Attempt{Number: number, Prompt: prompt, SQL: sqlText}

		// Only the first generation is checked for the sentinel; a sentinel
		// on retry is executed and fails like any other bad statement.
		if number == 1 && nl2sql.IsSentinel(sqlText) {
			trace.Attempts = append(trace.Attempts, attempt)
			finish(observability.OutcomeRefused)
			return RefusalMessage, trace, nil
		}

		a.logger.DebugContext(ctx, "executing_sql", slog.Int("attempt", number), slog.String("sql", sqlText))
		rows = a.Execute(ctx, engine, sqlText)
		trace.Executions++
		attempt.Failed = rows.Failed
		attempt.Rows = len(rows.Rows)
		if rows.Err != nil {
			attempt.Error = rows.Err.Error()
		}
		trace.Attempts = append(trace.Attempts, attempt)
		if !rows.Failed {
			break
		}
	}

	if rows.Failed {
		finish(observability.OutcomeFailed)
		return FailureMessage, trace, nil
	}

	a.logger.DebugContext(ctx, "phrasing_answer", slog.Int("rows", len(rows.Rows)))
	answer, err := a.Phrase(ctx, question, rows)
	trace.AnswerCalls++
	if err != nil {
		finish(observability.OutcomeError)
		return "", trace, err
	}
	finish(observability.OutcomeAnswered)
	return answer, trace, nil
}

// GenerateSQL asks the SQL model for a statement answering question.
func (a *Agent) GenerateSQL(ctx context.Context, question string) (string, error) {
	start := time.Now()
	result, err := a.translator.Translate(ctx, nl2sql.Request{Question: question})
	observability.ObserveCompletionLatency("sql", time.Since(start))
	if err != nil {
		return "", err
	}
	return result.SQL, nil
}

// Execute runs sqlText on engine. Failures are logged and reported through
// the returned ResultSet.
func (a *Agent) Execute(ctx context.Context, engine query.Engine, sqlText string) query.ResultSet {
	rows := query.Execute(ctx, engine, sqlText)
	if rows.Failed {
		observability.IncrementSQLExecutionFailure()
		a.logger.WarnContext(ctx, "sql_execution_failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("sql", sqlText),
			slog.Any("error", rows.Err),
		)
	}
	return rows
}

// Phrase turns rows into a natural-language answer to question.
func (a *Agent) Phrase(ctx context.Context, question string, rows query.ResultSet) (string, error) {
	start := time.Now()
	raw, err := a.client.Complete(ctx, a.chatModel, nl2sql.BuildAnswerPrompt(question, rows))
	observability.ObserveCompletionLatency("answer", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("phrase answer: %w", err)
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return EmptyAnswerMessage, nil
	}
	return answer, nil
}
