package eapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/vpbank/ifdom_collector/driver/eapi"
)

// newRunner builds a Runner pointed at the test server.
func newRunner(t *testing.T, srv *httptest.Server) *eapi.Runner {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	r, err := eapi.New(eapi.Config{
		Host:     u.Hostname(),
		Scheme:   "http",
		Port:     port,
		Username: "admin",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNew_RequiresHost(t *testing.T) {
	if _, err := eapi.New(eapi.Config{}); err == nil {
		t.Error("expected error for missing host")
	}
}

func TestNew_RejectsUnknownScheme(t *testing.T) {
	if _, err := eapi.New(eapi.Config{Host: "10.0.0.1", Scheme: "ftp"}); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestExecute_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/command-api" {
			t.Errorf("path = %q, want /command-api", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := `{"jsonrpc":"2.0","id":"ifdom_collector","result":[` +
			`{"interfaces":{"Ethernet1":{}}},` +
			`{"interfaceDescriptions":{"Ethernet1":{"description":"uplink"}}}]}`
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	}))
	defer srv.Close()

	results, err := newRunner(t, srv).Execute(context.Background(),
		[]string{"show interfaces transceiver detail", "show interfaces description"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if gotBody["method"] != "runCmds" {
		t.Errorf("method = %v", gotBody["method"])
	}
	params, _ := gotBody["params"].(map[string]any)
	cmds, _ := params["cmds"].([]any)
	if len(cmds) != 2 || cmds[0] != "show interfaces transceiver detail" {
		t.Errorf("cmds = %v", cmds)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !results[0].OK || !results[1].OK {
		t.Errorf("results not OK: %+v", results)
	}
	if results[0].Command != "show interfaces transceiver detail" {
		t.Errorf("Command = %q", results[0].Command)
	}
	if !strings.Contains(string(results[1].Body), "uplink") {
		t.Errorf("Body = %s", results[1].Body)
	}
}

func TestExecute_CommandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":"ifdom_collector","error":{` +
			`"code":1002,"message":"invalid command",` +
			`"data":[{"interfaces":{}},{"errors":["Invalid input"]}]}}`))
	}))
	defer srv.Close()

	results, err := newRunner(t, srv).Execute(context.Background(),
		[]string{"show interfaces transceiver detail", "show bogus", "show interfaces description"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].OK {
		t.Errorf("first command should have succeeded: %+v", results[0])
	}
	if results[1].OK || results[1].Err != "invalid command" {
		t.Errorf("failing command = %+v", results[1])
	}
	if results[2].OK || results[2].Err != "not executed" {
		t.Errorf("unreached command = %+v", results[2])
	}
}

func TestExecute_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newRunner(t, srv).Execute(context.Background(), []string{"show version"}); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestExecute_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if _, err := newRunner(t, srv).Execute(context.Background(), []string{"show version"}); err == nil {
		t.Error("expected error for refused connection")
	}
}

func TestExecute_ResultCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":"ifdom_collector","result":[{}]}`))
	}))
	defer srv.Close()

	if _, err := newRunner(t, srv).Execute(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error for result count mismatch")
	}
}
