package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/domain"
)

// uploader sends a document to the ingestion endpoint and returns the
// resulting Document, page-marked text included.
type uploader struct {
	serverURL  string
	httpClient *http.Client
}

func newUploader(serverURL string) *uploader {
	return &uploader{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

func (u *uploader) Upload(ctx context.Context, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.serverURL+"/api/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var fail struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &fail); err == nil && fail.Error != "" {
			return nil, fmt.Errorf("upload rejected: %s", fail.Error)
		}
		return nil, fmt.Errorf("upload rejected: status %d", resp.StatusCode)
	}

	var ok struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		TotalPages  int    `json:"totalPages"`
		TextContent string `json:"textContent"`
	}
	if err := json.Unmarshal(raw, &ok); err != nil {
		return nil, fmt.Errorf("parse upload response: %w", err)
	}

	return &domain.Document{
		ID:          ok.ID,
		Name:        ok.Name,
		TotalPages:  ok.TotalPages,
		TextContent: ok.TextContent,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
