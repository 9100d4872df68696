package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var ErrNoFileID = errors.New("drive: file id is required")

// UploadResult is produced once per successful upload.
type UploadResult struct {
	FileID       string `json:"fileId"`
	ViewLink     string `json:"viewLink"`
	DownloadLink string `json:"downloadLink"`
	PublicLink   string `json:"publicLink"`
}

// UploadError reports a non-2xx answer from Drive.
type UploadError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *UploadError) Error() string {
	op := e.Op
	if op == "" {
		op = "upload"
	}
	return fmt.Sprintf("drive %s failed: %d %s - %s", op, e.StatusCode, strings.TrimSpace(e.Status), e.Body)
}

// Uploader talks to the Drive REST API.
type Uploader struct {
	cfg  Config
	auth Authorizer
	log  *zap.Logger
}

func NewUploader(cfg Config, auth Authorizer, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{cfg: cfg.withDefaults(), auth: auth, log: log}
}

type fileMetadata struct {
	Name        string   `json:"name"`
	MimeType    string   `json:"mimeType"`
	Parents     []string `json:"parents,omitempty"`
	Description string   `json:"description,omitempty"`
}

// UploadPDF stores pdf under fileName in the configured folder and shares it
// with anyone holding the link. A failed share is logged and the upload
// still succeeds.
func (u *Uploader) UploadPDF(ctx context.Context, pdf []byte, fileName string, meta map[string]any) (UploadResult, error) {
	if len(pdf) == 0 {
		return UploadResult{}, errors.New("drive: empty document")
	}
	md := fileMetadata{Name: fileName, MimeType: "application/pdf"}
	if u.cfg.FolderID != "" {
		md.Parents = []string{u.cfg.FolderID}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	desc, err := json.Marshal(meta)
	if err != nil {
		return UploadResult{}, fmt.Errorf("drive: encode metadata: %w", err)
	}
	md.Description = string(desc)

	body, contentType, err := multipartBody(md, pdf)
	if err != nil {
		return UploadResult{}, err
	}

	endpoint := u.withKey(u.cfg.UploadURL + "?uploadType=multipart&fields=id,webViewLink,webContentLink")
	req, err := u.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.cfg.HTTPClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("drive: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{}, newUploadError("upload", resp)
	}

	var created struct {
		ID             string `json:"id"`
		WebViewLink    string `json:"webViewLink"`
		WebContentLink string `json:"webContentLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return UploadResult{}, fmt.Errorf("drive: decode upload response: %w", err)
	}
	if created.ID == "" {
		return UploadResult{}, errors.New("drive: upload response has no file id")
	}

	if err := u.MakePublic(ctx, created.ID); err != nil {
		u.log.Warn("drive file not made public", zap.String("file_id", created.ID), zap.Error(err))
	}

	u.log.Info("drive upload complete", zap.String("file_id", created.ID), zap.String("name", fileName))
	return UploadResult{
		FileID:       created.ID,
		ViewLink:     created.WebViewLink,
		DownloadLink: created.WebContentLink,
		PublicLink:   PublicLink(created.ID),
	}, nil
}

// MakePublic grants reader access to anyone with the link.
func (u *Uploader) MakePublic(ctx context.Context, fileID string) error {
	if fileID == "" {
		return ErrNoFileID
	}
	payload := strings.NewReader(`{"role":"reader","type":"anyone"}`)
	req, err := u.newRequest(ctx, http.MethodPost, u.withKey(u.fileURL(fileID)+"/permissions"), payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newUploadError("permission", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DeleteFile removes a file. It reports whether Drive answered 2xx; only
// transport failures are returned as errors.
func (u *Uploader) DeleteFile(ctx context.Context, fileID string) (bool, error) {
	if fileID == "" {
		return false, ErrNoFileID
	}
	req, err := u.newRequest(ctx, http.MethodDelete, u.withKey(u.fileURL(fileID)), nil)
	if err != nil {
		return false, err
	}
	resp, err := u.cfg.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("drive: delete: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok {
		u.log.Warn("drive delete rejected", zap.String("file_id", fileID), zap.Int("status", resp.StatusCode))
	}
	return ok, nil
}

// Close releases idle connections.
func (u *Uploader) Close() {
	u.cfg.HTTPClient.CloseIdleConnections()
}

func (u *Uploader) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	if u.auth == nil {
		return nil, ErrNotAuthorized
	}
	tok, err := u.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	return req, nil
}

func (u *Uploader) fileURL(fileID string) string {
	return u.cfg.FilesURL + "/" + url.PathEscape(fileID)
}

func (u *Uploader) withKey(endpoint string) string {
	if u.cfg.APIKey == "" {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "key=" + url.QueryEscape(u.cfg.APIKey)
}

func multipartBody(md fileMetadata, pdf []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(metaPart).Encode(md); err != nil {
		return nil, "", err
	}

	filePart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/pdf"}})
	if err != nil {
		return nil, "", err
	}
	if _, err := filePart.Write(pdf); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, "multipart/related; boundary=" + w.Boundary(), nil
}

func newUploadError(op string, resp *http.Response) *UploadError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	return &UploadError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       strings.TrimSpace(string(body)),
	}
}
