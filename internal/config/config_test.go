package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"APP_ADDR", "DB_DSN", "MODAL_EXIT_DELAY", "CORS_ALLOWED_ORIGINS", "DRIVE_FOLDER_ID"} {
		t.Setenv(k, "")
	}

	env := LoadEnv()
	if env.AppAddr != ":8080" {
		t.Fatalf("AppAddr = %q", env.AppAddr)
	}
	if env.DBDSN != defaultDSN {
		t.Fatalf("DBDSN = %q", env.DBDSN)
	}
	if env.ModalExitDelay != 300*time.Millisecond {
		t.Fatalf("ModalExitDelay = %v", env.ModalExitDelay)
	}
	if len(env.CORSOrigins) != len(defaultCORSOrigins) {
		t.Fatalf("CORSOrigins = %v", env.CORSOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("MODAL_EXIT_DELAY", "1s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DRIVE_FOLDER_ID", "folder-1")
	t.Setenv("DRIVE_UPLOAD_URL", "http://127.0.0.1:9999/upload")
	t.Setenv("GOOGLE_TOKEN_URL", "http://127.0.0.1:9999/token")

	env := LoadEnv()
	if env.AppAddr != ":9090" || env.ModalExitDelay != time.Second {
		t.Fatalf("unexpected env: %+v", env)
	}
	if len(env.CORSOrigins) != 2 || env.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", env.CORSOrigins)
	}
	if env.Drive.FolderID != "folder-1" {
		t.Fatalf("FolderID = %q", env.Drive.FolderID)
	}
	if env.Drive.UploadURL != "http://127.0.0.1:9999/upload" || env.Drive.TokenURL != "http://127.0.0.1:9999/token" {
		t.Fatalf("drive endpoints = %+v", env.Drive)
	}
	if env.Drive.FilesURL != "" || env.Drive.RevokeURL != "" {
		t.Fatalf("unset endpoints should stay blank: %+v", env.Drive)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("# comment\nDTT_TEST_A=from-file\nDTT_TEST_B=\"quoted\"\nbroken-line\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DTT_TEST_A", "from-env")
	os.Unsetenv("DTT_TEST_B")
	t.Cleanup(func() { os.Unsetenv("DTT_TEST_B") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("DTT_TEST_A"); got != "from-env" {
		t.Fatalf("DTT_TEST_A = %q", got)
	}
	if got := os.Getenv("DTT_TEST_B"); got != "quoted" {
		t.Fatalf("DTT_TEST_B = %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}

func TestFormProfile(t *testing.T) {
	p := DefaultFormProfile()
	if p.Title != "DRIVER'S TRIP TICKET" || len(p.Header) != 4 {
		t.Fatalf("unexpected default profile: %+v", p)
	}
	if p.Approving.Name != "RONALYN P. UBIÑA" {
		t.Fatalf("approving = %q", p.Approving.Name)
	}

	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("title: TRIP TICKET\ndefault_driver: JUAN DELA CRUZ\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	custom, err := LoadFormProfile(path)
	if err != nil {
		t.Fatalf("LoadFormProfile: %v", err)
	}
	if custom.Title != "TRIP TICKET" || custom.DefaultDriver != "JUAN DELA CRUZ" {
		t.Fatalf("override not applied: %+v", custom)
	}
	if custom.Recommending.Name == "" {
		t.Fatalf("defaults should survive partial override")
	}

	if _, err := LoadFormProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing profile")
	}
}
