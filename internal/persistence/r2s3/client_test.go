package r2s3

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClient_PutFile(t *testing.T) {
	content := []byte("snapshot bytes")
	local := filepath.Join(t.TempDir(), "5.snap.zst")
	if err := os.WriteFile(local, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var gotPath, gotAuth, gotHash string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotHash = r.Header.Get("x-amz-content-sha256")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, Bucket: "vox", AccessKeyID: "id", SecretAccessKey: "secret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.PutFile(context.Background(), "worlds/w1/5.snap.zst", local); err != nil {
		t.Fatalf("PutFile: %v", err)
	}

	if gotPath != "/vox/worlds/w1/5.snap.zst" {
		t.Fatalf("path = %s", gotPath)
	}
	sum := sha256.Sum256(content)
	if gotHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("payload hash = %s", gotHash)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=id/") ||
		!strings.Contains(gotAuth, "SignedHeaders=host;x-amz-content-sha256;x-amz-date") ||
		!strings.Contains(gotAuth, "Signature=") {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if string(gotBody) != string(content) {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestClient_PutFileServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "x.snap.zst")
	if err := os.WriteFile(local, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := New(Config{Endpoint: srv.URL, Bucket: "vox", AccessKeyID: "id", SecretAccessKey: "secret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.PutFile(context.Background(), "x.snap.zst", local)
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("err = %v, want status=403", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Endpoint: "r2.example.com", Bucket: "vox"}); err == nil {
		t.Fatal("want error for missing credentials")
	}
	c, err := New(Config{Endpoint: "r2.example.com", Bucket: "vox", AccessKeyID: "id", SecretAccessKey: "s"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.endpoint != "https://r2.example.com" {
		t.Fatalf("endpoint = %s, want https scheme added", c.endpoint)
	}
	if c.region != "auto" {
		t.Fatalf("region = %s, want auto default", c.region)
	}
}

func TestNormalizeObjectKey(t *testing.T) {
	cases := map[string]string{
		"a/b/c.zst":     "a/b/c.zst",
		"/lead/slash":   "lead/slash",
		"dot/./path":    "dot/path",
		"up/../x":       "x",
		"..":            "",
		"":              "",
		"back\\slashes": "back/slashes",
	}
	for in, want := range cases {
		if got := normalizeObjectKey(in); got != want {
			t.Errorf("normalizeObjectKey(%q) = %q, want %q", in, got, want)
		}
	}
}
