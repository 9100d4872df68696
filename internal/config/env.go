package config

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"time"
)

type Env struct {
	AppAddr     string
	GinMode     string
	LogLevel    string
	DBDSN       string
	JWTSecret   string
	CORSOrigins []string

	Drive DriveEnv

	ModalExitDelay time.Duration
	FormProfile    string
}

// DriveEnv carries the embedded service identifiers for the Drive uploader.
type DriveEnv struct {
	FolderID     string
	APIKey       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenFile    string

	// Endpoint overrides; blank means Google's production URLs.
	UploadURL string
	FilesURL  string
	RevokeURL string
	TokenURL  string
}

const defaultDSN = "root:@tcp(127.0.0.1:3306)/dtt?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

func LoadEnv() Env {
	_ = LoadDotEnv(".env")

	appAddr := getenv("APP_ADDR", ":8080")

	origins := defaultCORSOrigins
	if raw := getenv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		origins = nil
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				origins = append(origins, o)
			}
		}
	}

	exitDelay := 300 * time.Millisecond
	if raw := getenv("MODAL_EXIT_DELAY", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			exitDelay = d
		}
	}

	return Env{
		AppAddr:     appAddr,
		GinMode:     getenv("GIN_MODE", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DBDSN:       getenv("DB_DSN", defaultDSN),
		JWTSecret:   getenv("JWT_SECRET", "super-secret-key-change-me"),
		CORSOrigins: origins,
		Drive: DriveEnv{
			FolderID:     getenv("DRIVE_FOLDER_ID", ""),
			APIKey:       getenv("DRIVE_API_KEY", ""),
			ClientID:     getenv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/drive/oauth-callback"),
			TokenFile:    getenv("DRIVE_TOKEN_FILE", "drive_token.json"),
			UploadURL:    getenv("DRIVE_UPLOAD_URL", ""),
			FilesURL:     getenv("DRIVE_FILES_URL", ""),
			RevokeURL:    getenv("DRIVE_REVOKE_URL", ""),
			TokenURL:     getenv("GOOGLE_TOKEN_URL", ""),
		},
		ModalExitDelay: exitDelay,
		FormProfile:    getenv("FORM_PROFILE", ""),
	}
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// LoadDotEnv sets variables from a KEY=VALUE file. Variables already present
// in the environment win. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
