// Package outline implements the knowledge-base API capability against an
// Outline-compatible HTTP API: bearer authentication, POSTed JSON request
// bodies, and a uniform ok/data/error response envelope.
package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/utils"
)

const defaultCollectionColor = "#4E5C6E"

// Client talks to one Outline-compatible deployment.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *utils.Logger
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *utils.Logger
}

// NewClient creates a new API client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("API token is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		logger:     logger.WithComponent("outline"),
	}, nil
}

// AuthInfo verifies the credential via auth.info and returns the
// authenticated user's name.
func (c *Client) AuthInfo(ctx context.Context) (string, error) {
	var data authInfoData
	if err := c.post(ctx, "/api/auth.info", struct{}{}, &data); err != nil {
		return "", err
	}
	return data.User.Name, nil
}

// CreateCollection creates a new remote collection.
func (c *Client) CreateCollection(ctx context.Context, name, description string) (*domain.Collection, error) {
	req := createCollectionRequest{
		Name:        name,
		Description: description,
		Color:       defaultCollectionColor,
		Private:     false,
	}
	var col domain.Collection
	if err := c.post(ctx, "/api/collections.create", req, &col); err != nil {
		return nil, err
	}
	c.logger.Info().Str("name", name).Str("id", col.ID).Msg("Created collection")
	return &col, nil
}

// ListCollections returns one page of remote collections.
func (c *Client) ListCollections(ctx context.Context, limit, offset int) ([]domain.Collection, error) {
	if limit <= 0 {
		limit = 25
	}
	req := listCollectionsRequest{
		Limit:     limit,
		Offset:    offset,
		Sort:      "updatedAt",
		Direction: "DESC",
	}
	var cols []domain.Collection
	if err := c.post(ctx, "/api/collections.list", req, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// GetCollection returns collection details, or domain.ErrNotFound.
func (c *Client) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	var col domain.Collection
	if err := c.post(ctx, "/api/collections.info", idRequest{ID: id}, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// CreateDocument creates a document, optionally below a parent document.
func (c *Client) CreateDocument(ctx context.Context, req domain.CreateDocumentRequest) (*domain.Document, error) {
	body := createDocumentRequest{
		Title:            req.Title,
		Text:             req.Text,
		CollectionID:     req.CollectionID,
		ParentDocumentID: req.ParentDocumentID,
		Publish:          req.Publish,
	}
	var doc domain.Document
	if err := c.post(ctx, "/api/documents.create", body, &doc); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("title", req.Title).Str("id", doc.ID).Msg("Created document")
	return &doc, nil
}

// UpdateDocument updates a document's title and/or text.
func (c *Client) UpdateDocument(ctx context.Context, id, title, text string) (*domain.Document, error) {
	body := updateDocumentRequest{ID: id, Title: title, Text: text}
	var doc domain.Document
	if err := c.post(ctx, "/api/documents.update", body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument returns document details, or domain.ErrNotFound.
func (c *Client) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	if err := c.post(ctx, "/api/documents.info", idRequest{ID: id}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UploadAttachment uploads a local binary bound to an existing document via
// a multipart attachments.create call.
func (c *Client) UploadAttachment(ctx context.Context, documentID, localPath, filename string) (*domain.AttachmentRef, error) {
	const endpoint = "/api/attachments.create"

	f, err := os.Open(localPath)
	if err != nil {
		return nil, domain.NewAPIError(endpoint, 0, fmt.Sprintf("open %s", localPath), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, domain.NewAPIError(endpoint, 0, "build multipart body", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, domain.NewAPIError(endpoint, 0, fmt.Sprintf("read %s", localPath), err)
	}
	if err := mw.WriteField("documentId", documentID); err != nil {
		return nil, domain.NewAPIError(endpoint, 0, "build multipart body", err)
	}
	if err := mw.WriteField("name", filename); err != nil {
		return nil, domain.NewAPIError(endpoint, 0, "build multipart body", err)
	}
	if err := mw.Close(); err != nil {
		return nil, domain.NewAPIError(endpoint, 0, "build multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, domain.NewAPIError(endpoint, 0, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var ref domain.AttachmentRef
	if err := c.do(req, endpoint, &ref); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("filename", filename).Str("id", ref.ID).Msg("Uploaded attachment")
	return &ref, nil
}

// AttachmentEndpoint returns the redirect endpoint resolved reference tokens
// point at.
func (c *Client) AttachmentEndpoint() string {
	return c.baseURL + "/api/attachments.redirect"
}

// post issues a JSON POST and decodes the envelope's data field into out.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.NewAPIError(endpoint, 0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.NewAPIError(endpoint, 0, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint, out)
}

// do executes a prepared request and maps the response onto the error
// taxonomy: 429 to RateLimitError, 401 to ErrAuthFailed, 404 to ErrNotFound,
// everything else non-2xx to APIError.
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewAPIError(endpoint, 0, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.NewAPIError(endpoint, resp.StatusCode, "invalid or expired token", domain.ErrAuthFailed)
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewAPIError(endpoint, resp.StatusCode, "no such object", domain.ErrNotFound)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewAPIError(endpoint, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.errorMessage() != "unknown error" {
			msg = env.errorMessage()
		}
		return domain.NewAPIError(endpoint, resp.StatusCode, msg, nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.NewAPIError(endpoint, resp.StatusCode, "decode response", err)
	}
	if !env.OK {
		return domain.NewAPIError(endpoint, resp.StatusCode, env.errorMessage(), nil)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return domain.NewAPIError(endpoint, resp.StatusCode, "decode data", err)
		}
	}
	return nil
}

// parseRetryAfter parses a Retry-After header carrying delay seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
