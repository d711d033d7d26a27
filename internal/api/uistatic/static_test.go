package uistatic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesIndexAndAssets(t *testing.T) {
	h := Handler(Options{})

	for _, target := range []string{"/", "/index.html"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", target, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "AI Data Agent") {
			t.Fatalf("%s body = %q", target, rr.Body.String())
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "config.json") {
		t.Fatalf("app.js status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rr.Code)
	}
}

func TestHandlerServesPageConfig(t *testing.T) {
	cases := []struct {
		name         string
		opts         Options
		wantExamples int
		wantAuth     bool
		wantAskPath  string
	}{
		{name: "defaults", opts: Options{}, wantExamples: len(DefaultExamples), wantAskPath: "/v1/ask"},
		{name: "custom", opts: Options{AuthRequired: true, Examples: []string{"Combien de commandes ?"}, AskPath: "/ask"}, wantExamples: 1, wantAuth: true, wantAskPath: "/ask"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Handler(tc.opts).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/config.json", nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			var got pageConfig
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("json decode failed: %v", err)
			}
			if len(got.Examples) != tc.wantExamples || got.AuthRequired != tc.wantAuth || got.AskPath != tc.wantAskPath {
				t.Fatalf("config = %+v", got)
			}
		})
	}
}
