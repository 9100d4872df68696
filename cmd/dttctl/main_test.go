package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPeriodCommand(t *testing.T) {
	out, err := run(t, "period", "2024-03-05", "2024-03-07")
	if err != nil {
		t.Fatalf("period error: %v", err)
	}
	if strings.TrimSpace(out) != "March 5-7, 2024" {
		t.Fatalf("period output = %q", out)
	}
	if _, err := run(t, "period", "2024-03-05"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trip.json")
	raw, _ := json.Marshal(map[string]any{
		"dttId":       "DTT-9",
		"driverName":  "Juan Dela Cruz",
		"destination": "Aparri",
		"periodFrom":  "2024-03-05",
		"periodTo":    "2024-03-06",
	})
	if err := os.WriteFile(input, raw, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, err := run(t, "render", "--input", input, "--layout", "summary", "--out", dir)
	if err != nil {
		t.Fatalf("render error: %v (%s)", err, out)
	}
	want := filepath.Join(dir, "DTT_DTT-9_Aparri_2024-03-05.pdf")
	if strings.TrimSpace(out) != want {
		t.Fatalf("render printed %q, want %q", out, want)
	}
	pdf, err := os.ReadFile(want)
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("rendered file missing or not a PDF: %v", err)
	}

	if _, err := run(t, "render", "--input", input, "--layout", "poster"); err == nil {
		t.Fatalf("expected layout error")
	}
	if _, err := run(t, "render"); err == nil {
		t.Fatalf("expected missing --input error")
	}
}

func writeTicket(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "trip.json")
	raw, _ := json.Marshal(map[string]any{
		"dttId":       "DTT-9",
		"driverName":  "Juan Dela Cruz",
		"destination": "Aparri",
		"passengers":  []string{"Dela Cruz, Juan"},
		"periodFrom":  "2024-03-05",
		"periodTo":    "2024-03-06",
	})
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestRenderCommandLogoOverrides(t *testing.T) {
	dir := t.TempDir()
	input := writeTicket(t, dir)
	logo := filepath.Join(dir, "logo.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 12, 12))); err != nil {
		t.Fatalf("encode logo: %v", err)
	}
	if err := os.WriteFile(logo, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write logo: %v", err)
	}

	out, err := run(t, "render", "--input", input, "--out", dir, "--left-logo", logo, "--right-logo", logo)
	if err != nil {
		t.Fatalf("render with logos error: %v (%s)", err, out)
	}
	if _, err := run(t, "render", "--input", input, "--out", dir, "--left-logo", filepath.Join(dir, "missing.png")); err == nil {
		t.Fatalf("expected error for a missing logo file")
	}
}

// driveStub records what the CLI sends to the Drive and OAuth endpoints.
type driveStub struct {
	mu          sync.Mutex
	auth        string
	uploadBody  string
	permissions int
	revoked     string
}

func (s *driveStub) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.auth = r.Header.Get("Authorization")
		s.uploadBody = string(body)
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc","webViewLink":"https://drive.test/view/abc","webContentLink":"https://drive.test/dl/abc"}`))
	})
	mux.HandleFunc("POST /files/abc/permissions", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.permissions++
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"anyoneWithLink"}`))
	})
	mux.HandleFunc("POST /revoke", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.revoked = r.Form.Get("token")
		s.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// useDrive points the Drive settings at srv and stores a token that is valid
// for an hour. It returns the token file path.
func useDrive(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	tokenFile := filepath.Join(dir, "drive_token.json")
	raw, _ := json.Marshal(&oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	})
	if err := os.WriteFile(tokenFile, raw, 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	t.Setenv("DRIVE_TOKEN_FILE", tokenFile)
	t.Setenv("DRIVE_FOLDER_ID", "folder-1")
	t.Setenv("DRIVE_API_KEY", "")
	t.Setenv("DRIVE_UPLOAD_URL", srv.URL+"/upload")
	t.Setenv("DRIVE_FILES_URL", srv.URL+"/files")
	t.Setenv("DRIVE_REVOKE_URL", srv.URL+"/revoke")
	t.Setenv("GOOGLE_TOKEN_URL", srv.URL+"/token")
	return tokenFile
}

func TestUploadCommand(t *testing.T) {
	stub := &driveStub{}
	srv := stub.server(t)
	useDrive(t, srv)
	input := writeTicket(t, t.TempDir())

	out, err := run(t, "upload", "--input", input)
	if err != nil {
		t.Fatalf("upload error: %v (%s)", err, out)
	}
	var res struct {
		FileID     string `json:"fileId"`
		ViewLink   string `json:"viewLink"`
		PublicLink string `json:"publicLink"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("upload output is not JSON: %v (%s)", err, out)
	}
	if res.FileID != "abc" || res.ViewLink != "https://drive.test/view/abc" || !strings.Contains(res.PublicLink, "/file/d/abc/") {
		t.Fatalf("unexpected upload result %+v", res)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.auth != "Bearer access-1" {
		t.Fatalf("Authorization = %q", stub.auth)
	}
	for _, want := range []string{"DTT_DTT-9_Aparri_2024-03-05.pdf", "folder-1", "periodFrom", "2024-03-06", "%PDF"} {
		if !strings.Contains(stub.uploadBody, want) {
			t.Fatalf("upload body is missing %q", want)
		}
	}
	if stub.permissions != 1 {
		t.Fatalf("file shared %d times", stub.permissions)
	}
}

func TestUploadCommandRequiresAuthorization(t *testing.T) {
	srv := (&driveStub{}).server(t)
	tokenFile := useDrive(t, srv)
	if err := os.Remove(tokenFile); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	input := writeTicket(t, t.TempDir())

	if _, err := run(t, "upload", "--input", input); err == nil || !strings.Contains(err.Error(), "not authorized") {
		t.Fatalf("expected not authorized error, got %v", err)
	}
}

func TestAuthStatusAndRevoke(t *testing.T) {
	stub := &driveStub{}
	srv := stub.server(t)
	tokenFile := useDrive(t, srv)

	out, err := run(t, "auth", "status")
	if err != nil {
		t.Fatalf("auth status error: %v", err)
	}
	var st struct {
		Authorized bool `json:"authorized"`
		CanRefresh bool `json:"canRefresh"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil || !st.Authorized || !st.CanRefresh {
		t.Fatalf("auth status = %q (%v)", out, err)
	}

	out, err = run(t, "auth", "revoke")
	if err != nil {
		t.Fatalf("auth revoke error: %v", err)
	}
	if strings.TrimSpace(out) != "revoked" {
		t.Fatalf("auth revoke printed %q", out)
	}
	if _, err := os.Stat(tokenFile); !os.IsNotExist(err) {
		t.Fatalf("token file should be removed, stat err = %v", err)
	}
	stub.mu.Lock()
	revoked := stub.revoked
	stub.mu.Unlock()
	if revoked != "refresh-1" {
		t.Fatalf("revoked token = %q", revoked)
	}

	out, err = run(t, "auth", "status")
	if err != nil || !strings.Contains(out, `"authorized":false`) {
		t.Fatalf("status after revoke = %q (%v)", out, err)
	}
}
