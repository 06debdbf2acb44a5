package client

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/SAWGraph/public/internal/sparql/results"
)

const (
	testUser  = "sawgraph"
	testPass  = "s3cret"
	testRealm = "GraphDB"
	testNonce = "dcd98b7102dd2f0e8b11d0f600bfb0c093"
)

const oneRow = `{"head":{"vars":["facility","facWKT"]},"results":{"bindings":[
 {"facility":{"type":"uri","value":"http://example.org/f/1"},
  "facWKT":{"type":"literal","datatype":"http://www.opengis.net/ont/geosparql#wktLiteral","value":"POINT (-69.7 44.3)"}}]}}`

var paramRe = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|([^,\s]*))`)

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func validDigest(h, method, pass string) bool {
	rest, ok := strings.CutPrefix(h, "Digest ")
	if !ok {
		return false
	}
	p := map[string]string{}
	for _, m := range paramRe.FindAllStringSubmatch(rest, -1) {
		v := m[2]
		if v == "" {
			v = m[3]
		}
		p[m[1]] = v
	}
	if p["username"] != testUser || p["nonce"] != testNonce {
		return false
	}
	ha1 := md5hex(testUser + ":" + testRealm + ":" + pass)
	ha2 := md5hex(method + ":" + p["uri"])
	want := md5hex(ha1 + ":" + testNonce + ":" + p["nc"] + ":" + p["cnonce"] + ":" + p["qop"] + ":" + ha2)
	return p["response"] == want
}

// newDigestEndpoint serves handler behind a digest challenge for testUser/testPass.
func newDigestEndpoint(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validDigest(r.Header.Get("Authorization"), r.Method, testPass) {
			w.Header().Set("WWW-Authenticate",
				fmt.Sprintf(`Digest realm="%s", nonce="%s", qop="auth", algorithm=MD5`, testRealm, testNonce))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, endpoint string, mut func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		Endpoint: endpoint + "/repositories/PFAS",
		Username: testUser,
		Password: testPass,
		Timeout:  2 * time.Second,
	}
	if mut != nil {
		mut(&cfg)
	}
	c, err := New(nil, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestExecute_GetWithDigest(t *testing.T) {
	const q = "SELECT * WHERE { ?s ?p ?o } LIMIT 1"
	srv := newDigestEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/repositories/PFAS" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != q {
			t.Errorf("query=%q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/sparql-results+json" {
			t.Errorf("accept=%q", got)
		}
		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(oneRow))
	})
	c := newClient(t, srv.URL, nil)

	raw, err := c.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	bo, ok := raw.(results.BindingObjects)
	if !ok {
		t.Fatalf("raw=%T want BindingObjects", raw)
	}
	if len(bo.Bindings) != 1 || bo.Bindings[0]["facility"].Value != "http://example.org/f/1" {
		t.Fatalf("unexpected bindings %+v", bo)
	}
}

func TestExecute_PostForm(t *testing.T) {
	const q = "SELECT ?x WHERE { ?x a ?y } LIMIT 2"
	srv := newDigestEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("query"); got != q {
			t.Errorf("form query=%q", got)
		}
		_, _ = w.Write([]byte(oneRow))
	})
	c := newClient(t, srv.URL, func(cfg *Config) { cfg.Method = "post" })

	raw, err := c.ExecuteJSON(context.Background(), q)
	if err != nil {
		t.Fatalf("ExecuteJSON: %v", err)
	}
	if _, ok := raw.(results.NestedJSON); !ok {
		t.Fatalf("raw=%T want NestedJSON", raw)
	}
	tbl, err := results.Normalize(raw)
	if err != nil || tbl.Len() != 1 {
		t.Fatalf("normalize: %v rows=%d", err, tbl.Len())
	}
}

func TestExecute_EmptyBindingsIsNotAnError(t *testing.T) {
	srv := newDigestEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"head":{"vars":["samplePoint","spWKT"]},"results":{"bindings":[]}}`))
	})
	c := newClient(t, srv.URL, nil)
	raw, err := c.Execute(context.Background(), "SELECT ?samplePoint ?spWKT WHERE { VALUES ?industry { } }")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	tbl, err := results.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("rows=%d want 0", tbl.Len())
	}
}

func TestExecute_WrongPasswordIsAuthenticationError(t *testing.T) {
	srv := newDigestEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(oneRow))
	})
	c := newClient(t, srv.URL, func(cfg *Config) { cfg.Password = "wrong" })

	_, err := c.Execute(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	var ae *AuthenticationError
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
		t.Fatalf("expected AuthenticationError(401), got %v", err)
	}
	if KindOf(err) != KindAuthentication {
		t.Fatalf("kind=%q", KindOf(err))
	}
}

func TestExecute_Timeout(t *testing.T) {
	srv := newDigestEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte(oneRow))
	})
	c := newClient(t, srv.URL, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })

	_, err := c.Execute(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %T %v", err, err)
	}
}

func TestExecute_UpstreamTimeoutStatus(t *testing.T) {
	srv := newDigestEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "query interrupted", http.StatusServiceUnavailable)
	})
	c := newClient(t, srv.URL, nil)
	_, err := c.Execute(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}

func TestExecute_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"html", http.StatusOK, "<html>maintenance</html>"},
		{"ask", http.StatusOK, `{"head":{},"boolean":true}`},
		{"server error", http.StatusInternalServerError, "MALFORMED QUERY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newDigestEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			c := newClient(t, srv.URL, nil)
			_, err := c.Execute(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
			var me *MalformedResponseError
			if !errors.As(err, &me) {
				t.Fatalf("expected MalformedResponseError, got %v", err)
			}
			if me.Status != tc.status {
				t.Fatalf("status=%d want %d", me.Status, tc.status)
			}
		})
	}
}

func TestExecute_ConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url, nil)
	_, err := c.Execute(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	var ce *ConnectivityError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConnectivityError, got %T %v", err, err)
	}
	if strings.Contains(err.Error(), testPass) {
		t.Fatalf("error leaks credentials: %v", err)
	}
}

func TestRepositorySize(t *testing.T) {
	srv := newDigestEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repositories/PFAS/size" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("1843920\n"))
	})
	c := newClient(t, srv.URL, nil)
	n, err := c.RepositorySize(context.Background())
	if err != nil {
		t.Fatalf("RepositorySize: %v", err)
	}
	if n != 1843920 {
		t.Fatalf("size=%d", n)
	}
}

func TestNew_Validation(t *testing.T) {
	bad := []Config{
		{Endpoint: "ftp://example.org/sparql"},
		{Endpoint: "https://example.org/sparql", Method: "PUT"},
		{Endpoint: "https://example.org/sparql", Format: "xml"},
	}
	for i, cfg := range bad {
		if _, err := New(nil, cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
	c, err := New(nil, Config{Endpoint: "https://gdb.acg.maine.edu:7201/repositories/PFAS"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Timeout() != 30*time.Second || c.cfg.Method != http.MethodGet {
		t.Fatalf("defaults not applied: %+v", c.cfg)
	}
}
