// Package uploader provides a Go client for the R2 manager upload API and a
// chunking driver that picks between single-shot and multipart uploads based
// on file size.
package uploader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// uploadAPI is the surface the chunking driver needs. Both the authenticated
// client and the link client satisfy it.
type uploadAPI interface {
	put(ctx context.Context, key string, data []byte, contentType string) error
	initiate(ctx context.Context, key, contentType string) (string, error)
	uploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error)
	complete(ctx context.Context, key, uploadID string, parts []r2manager.CompletedPart) (string, error)
	abort(ctx context.Context, key, uploadID string) error
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client talks to the authenticated upload endpoints for one storage account
// and bucket.
type Client struct {
	baseURL    string
	token      string
	accountID  string
	bucket     string
	httpClient *http.Client
}

// NewClient creates a client bound to one account and bucket. token is the
// bearer token obtained from the login endpoint.
func NewClient(baseURL, token, accountID, bucket string) *Client {
	return &Client{
		baseURL:   baseURL,
		token:     token,
		accountID: accountID,
		bucket:    bucket,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *Client) endpoint(suffix string) string {
	return fmt.Sprintf("%s/api/r2/%s/buckets/%s/%s", c.baseURL, c.accountID, c.bucket, suffix)
}

func (c *Client) put(ctx context.Context, key string, data []byte, contentType string) error {
	body := map[string]string{
		"key":         key,
		"data":        base64.StdEncoding.EncodeToString(data),
		"contentType": contentType,
	}
	return doJSON(ctx, c.httpClient, c.token, "POST", c.endpoint("upload"), body, nil)
}

func (c *Client) initiate(ctx context.Context, key, contentType string) (string, error) {
	body := map[string]string{"key": key, "contentType": contentType}
	var resp struct {
		UploadID string `json:"uploadId"`
	}
	if err := doJSON(ctx, c.httpClient, c.token, "POST", c.endpoint("multipart/initiate"), body, &resp); err != nil {
		return "", err
	}
	return resp.UploadID, nil
}

func (c *Client) uploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	body := map[string]interface{}{
		"key":        key,
		"uploadId":   uploadID,
		"partNumber": partNumber,
		"data":       base64.StdEncoding.EncodeToString(data),
	}
	var resp struct {
		ETag string `json:"ETag"`
	}
	if err := doJSON(ctx, c.httpClient, c.token, "POST", c.endpoint("multipart/upload-part"), body, &resp); err != nil {
		return "", err
	}
	return resp.ETag, nil
}

func (c *Client) complete(ctx context.Context, key, uploadID string, parts []r2manager.CompletedPart) (string, error) {
	body := map[string]interface{}{
		"key":      key,
		"uploadId": uploadID,
		"parts":    parts,
	}
	var resp struct {
		Location string `json:"location"`
	}
	if err := doJSON(ctx, c.httpClient, c.token, "POST", c.endpoint("multipart/complete"), body, &resp); err != nil {
		return "", err
	}
	return resp.Location, nil
}

func (c *Client) abort(ctx context.Context, key, uploadID string) error {
	body := map[string]string{"key": key, "uploadId": uploadID}
	return doJSON(ctx, c.httpClient, c.token, "POST", c.endpoint("multipart/abort"), body, nil)
}

// LinkClient talks to the public upload endpoints using a link token in place
// of authentication.
type LinkClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewLinkClient creates a client for a public upload link. token is the raw
// token from the link URL.
func NewLinkClient(baseURL, token string) *LinkClient {
	return &LinkClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *LinkClient) endpoint(suffix string) string {
	return fmt.Sprintf("%s/api/public-upload/%s/%s", c.baseURL, c.token, suffix)
}

// Info validates the link and returns its destination bucket and prefix.
func (c *LinkClient) Info(ctx context.Context) (*r2manager.LinkInfo, error) {
	var resp struct {
		BucketName string    `json:"bucketName"`
		Prefix     string    `json:"prefix"`
		ExpiresAt  time.Time `json:"expiresAt"`
	}
	if err := doJSON(ctx, c.httpClient, "", "GET", c.endpoint("info"), nil, &resp); err != nil {
		return nil, err
	}
	return &r2manager.LinkInfo{
		BucketName: resp.BucketName,
		Prefix:     resp.Prefix,
		ExpiresAt:  resp.ExpiresAt,
	}, nil
}

func (c *LinkClient) put(ctx context.Context, key string, data []byte, contentType string) error {
	body := map[string]string{
		"key":         key,
		"data":        base64.StdEncoding.EncodeToString(data),
		"contentType": contentType,
	}
	return doJSON(ctx, c.httpClient, "", "POST", c.endpoint("upload"), body, nil)
}

func (c *LinkClient) initiate(ctx context.Context, key, contentType string) (string, error) {
	body := map[string]string{"key": key, "contentType": contentType}
	var resp struct {
		UploadID string `json:"uploadId"`
	}
	if err := doJSON(ctx, c.httpClient, "", "POST", c.endpoint("multipart/initiate"), body, &resp); err != nil {
		return "", err
	}
	return resp.UploadID, nil
}

func (c *LinkClient) uploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (string, error) {
	body := map[string]interface{}{
		"key":        key,
		"uploadId":   uploadID,
		"partNumber": partNumber,
		"data":       base64.StdEncoding.EncodeToString(data),
	}
	var resp struct {
		ETag string `json:"ETag"`
	}
	if err := doJSON(ctx, c.httpClient, "", "POST", c.endpoint("multipart/upload-part"), body, &resp); err != nil {
		return "", err
	}
	return resp.ETag, nil
}

func (c *LinkClient) complete(ctx context.Context, key, uploadID string, parts []r2manager.CompletedPart) (string, error) {
	body := map[string]interface{}{
		"key":      key,
		"uploadId": uploadID,
		"parts":    parts,
	}
	var resp struct {
		Location string `json:"location"`
	}
	if err := doJSON(ctx, c.httpClient, "", "POST", c.endpoint("multipart/complete"), body, &resp); err != nil {
		return "", err
	}
	return resp.Location, nil
}

func (c *LinkClient) abort(ctx context.Context, key, uploadID string) error {
	body := map[string]string{"key": key, "uploadId": uploadID}
	return doJSON(ctx, c.httpClient, "", "POST", c.endpoint("multipart/abort"), body, nil)
}

// doJSON performs one JSON request and unwraps the response envelope.
func doJSON(ctx context.Context, client *http.Client, token, method, url string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		if env.Error != "" {
			return fmt.Errorf("API error: %s", env.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
