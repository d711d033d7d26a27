// Package dataagentctl is the terminal client of the data agent API.
package dataagentctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	BaseURL string
	// APIKey is the service key sent as X-API-Key.
	APIKey string
	// CompletionKey is forwarded as api_key in ask requests.
	CompletionKey string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Stdout        io.Writer
	Stderr        io.Writer
}

// call is one HTTP exchange derived from the command line.
type call struct {
	method  string
	path    string
	payload any
	// answerOnly prints just the "response" field of a JSON body.
	answerOnly bool
}

type settings struct {
	completionKey string
	debug         bool
}

type command struct {
	args    string
	summary string
	build   func(args []string, s settings) (call, error)
}

var commandOrder = []string{"health", "ready", "ask", "snapshot", "snapshots", "snapshot-delete"}

var commands = map[string]command{
	"health": {summary: "GET /v1/health", build: fixed(http.MethodGet, "/v1/health")},
	"ready":  {summary: "GET /v1/ready", build: fixed(http.MethodGet, "/v1/ready")},
	"ask": {args: "<question>", summary: "POST /v1/ask", build: func(args []string, s settings) (call, error) {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return call{}, errors.New("ask requires a question")
		}
		body := map[string]string{"question": question}
		if key := strings.TrimSpace(s.completionKey); key != "" {
			body["api_key"] = key
		}
		c := call{method: http.MethodPost, path: "/v1/ask", payload: body, answerOnly: !s.debug}
		if s.debug {
			c.path += "?debug=true"
		}
		return c, nil
	}},
	"snapshot": {args: "<name>", summary: "POST /v1/snapshots", build: func(args []string, _ settings) (call, error) {
		name, err := singleName("snapshot", args)
		if err != nil {
			return call{}, err
		}
		return call{method: http.MethodPost, path: "/v1/snapshots", payload: map[string]string{"name": name}}, nil
	}},
	"snapshots": {summary: "GET /v1/snapshots", build: fixed(http.MethodGet, "/v1/snapshots")},
	"snapshot-delete": {args: "<name>", summary: "DELETE /v1/snapshots/{name}", build: func(args []string, _ settings) (call, error) {
		name, err := singleName("snapshot-delete", args)
		if err != nil {
			return call{}, err
		}
		return call{method: http.MethodDelete, path: "/v1/snapshots/" + url.PathEscape(name)}, nil
	}},
}

func fixed(method, path string) func([]string, settings) (call, error) {
	return func([]string, settings) (call, error) {
		return call{method: method, path: path}, nil
	}
}

func singleName(cmd string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%s requires a name", cmd)
	}
	return strings.TrimSpace(args[0]), nil
}

// Run executes one command and returns the process exit code: 0 on success,
// 1 when the request fails, 2 on usage errors.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := writerOr(defaults.Stdout)
	stderr := writerOr(defaults.Stderr)

	fs := flag.NewFlagSet("dataagentctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8000"), "Data agent API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "service API key for authenticated requests")
	completionKey := fs.String("openrouter-key", defaults.CompletionKey, "completion API key forwarded with ask")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 60s)")
	debug := fs.Bool("debug", false, "print the full ask response including the trace")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	name := strings.TrimSpace(fs.Arg(0))
	cmd, ok := commands[name]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		writeUsage(stderr)
		return 2
	}
	c, err := cmd.build(fs.Args()[1:], settings{completionKey: *completionKey, debug: *debug})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}
	status, body, err := doRequest(ctx, client, c, strings.TrimRight(*baseURL, "/"), *apiKey)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	if status >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", status, strings.TrimSpace(string(body)))
		return 1
	}
	printBody(stdout, body, c.answerOnly)
	return 0
}

func doRequest(ctx context.Context, client *http.Client, c call, baseURL, apiKey string) (int, []byte, error) {
	var reader io.Reader
	if c.payload != nil {
		encoded, err := json.Marshal(c.payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, c.method, baseURL+c.path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func printBody(w io.Writer, body []byte, answerOnly bool) {
	if answerOnly {
		var answer struct {
			Response string `json:"response"`
		}
		if json.Unmarshal(body, &answer) == nil {
			_, _ = fmt.Fprintln(w, answer.Response)
			return
		}
	}
	var decoded any
	if json.Unmarshal(body, &decoded) == nil {
		if indented, err := json.MarshalIndent(decoded, "", "  "); err == nil {
			_, _ = fmt.Fprintln(w, string(indented))
			return
		}
	}
	if len(bytes.TrimSpace(body)) > 0 {
		_, _ = fmt.Fprintln(w, string(body))
	}
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: dataagentctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "\ncommands:")
	for _, name := range commandOrder {
		cmd := commands[name]
		_, _ = fmt.Fprintf(w, "  %-24s %s\n", strings.TrimSpace(name+" "+cmd.args), cmd.summary)
	}
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
