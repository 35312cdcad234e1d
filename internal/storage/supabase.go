package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStorage stores objects in a Supabase Storage bucket through its
// REST API, authenticated with the service role key.
type SupabaseStorage struct {
	supabaseURL string
	serviceKey  string
	bucket      string
	httpClient  *http.Client
}

// NewSupabaseStorage creates a Supabase Storage client for one bucket.
func NewSupabaseStorage(supabaseURL, serviceKey, bucket string) (*SupabaseStorage, error) {
	if supabaseURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for supabase storage")
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket cannot be empty")
	}
	return &SupabaseStorage{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		serviceKey:  serviceKey,
		bucket:      bucket,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

func (s *SupabaseStorage) objectURL(prefix, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s%s/%s", s.supabaseURL, prefix, s.bucket, escapeKey(key))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (s *SupabaseStorage) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	return req, nil
}

// do sends req and returns the body of a 2xx response.
func (s *SupabaseStorage) do(req *http.Request, op string) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Upload writes data under key. x-upsert replaces an existing object.
func (s *SupabaseStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	req, err := s.newRequest(ctx, http.MethodPost, s.objectURL("", key), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	_, err = s.do(req, "upload object")
	return err
}

// Download fetches the object through a short-lived signed URL.
func (s *SupabaseStorage) Download(ctx context.Context, key string) ([]byte, error) {
	signed, err := s.SignedURL(ctx, key, time.Minute)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	return s.do(req, "download object")
}

// Delete removes the object. A missing object is not an error.
func (s *SupabaseStorage) Delete(ctx context.Context, key string) error {
	req, err := s.newRequest(ctx, http.MethodDelete, s.objectURL("", key), nil)
	if err != nil {
		return err
	}

	_, err = s.do(req, "delete object")
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignedURL returns an absolute download URL valid for expiry.
func (s *SupabaseStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	payload, err := json.Marshal(signRequest{ExpiresIn: int(expiry.Seconds())})
	if err != nil {
		return "", fmt.Errorf("failed to encode sign request: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.objectURL("sign/", key), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req, "sign object url")
	if err != nil {
		return "", err
	}

	var signed signResponse
	if err := json.Unmarshal(body, &signed); err != nil {
		return "", fmt.Errorf("failed to decode sign response: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("sign response has no signedURL")
	}

	// signedURL is relative to the storage API root.
	return s.supabaseURL + "/storage/v1" + signed.SignedURL, nil
}
