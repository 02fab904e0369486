// Package nsg is a client library for the Neuroscience Gateway (CIPRES) REST
// API plus a local runner for NSG-style job payloads.
package nsg

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production CIPRES REST endpoint.
const DefaultBaseURL = "https://nsgr.sdsc.edu:8443/cipresrest/v1"

const (
	requestTimeout   = 30 * time.Second
	submitTimeout    = 60 * time.Second
	appKeyHeader     = "cipres-appkey"
	maxRetries       = 3
	downloadBufSize  = 8192
	downloadFilePerm = 0o644
)

// ProgressFunc reports download progress for a single file.
type ProgressFunc func(filename string, downloaded, total int64)

// Client talks to the NSG REST API on behalf of one user.
type Client struct {
	hc      *http.Client
	creds   Credentials
	baseURL string
	log     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a non-default API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient constructs a client for the given credentials.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: requestTimeout},
		creds:   creds,
		baseURL: DefaultBaseURL,
		log:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API endpoint the client is configured for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set(appKeyHeader, c.creds.AppKey)

	return req, nil
}

// get performs a GET with retries on transport errors and 5xx responses and
// returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte

	op := func() error {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		c.log.Debug().Str("path", path).Msg("GET")

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return backoff.Permanent(fmt.Errorf("HTTP %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	return body, nil
}

// TestConnection checks that the stored credentials can authenticate.
func (c *Client) TestConnection(ctx context.Context) error {
	if _, err := c.get(ctx, "/job/"+c.creds.Username); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	return nil
}

// ListJobs fetches all jobs for the authenticated user.
func (c *Client) ListJobs(ctx context.Context) ([]JobSummary, error) {
	body, err := c.get(ctx, "/job/"+c.creds.Username)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return ParseJobList(body)
}

// resolvePath normalizes a job handle, /job/ path or absolute URL into an
// API-relative path.
func (c *Client) resolvePath(jobURLOrID string) (string, error) {
	switch {
	case strings.HasPrefix(jobURLOrID, "http"):
		path, ok := strings.CutPrefix(jobURLOrID, c.baseURL)
		if !ok {
			return "", fmt.Errorf("job URL %q does not match API endpoint %s", jobURLOrID, c.baseURL)
		}

		return path, nil
	case strings.HasPrefix(jobURLOrID, "/job/"):
		return jobURLOrID, nil
	default:
		return fmt.Sprintf("/job/%s/%s", c.creds.Username, jobURLOrID), nil
	}
}

// GetJobStatus fetches the status of one job, by handle, path or URL.
func (c *Client) GetJobStatus(ctx context.Context, jobURLOrID string) (*JobStatus, error) {
	path, err := c.resolvePath(jobURLOrID)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("get job status %s: %w", jobURLOrID, err)
	}

	return ParseJobStatus(body)
}

// SubmitJob uploads a job ZIP for the given tool and returns the initial
// status of the created job. Submission is never retried.
func (c *Client) SubmitJob(ctx context.Context, zipPath, tool string) (*JobStatus, error) {
	f, err := os.Open(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open job zip: %w", err)
	}
	defer f.Close()

	// Stream the archive through a pipe so large ZIPs are never held in
	// memory whole.
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := w.WriteField("tool", tool); err != nil {
				return fmt.Errorf("write tool field: %w", err)
			}

			part, err := w.CreateFormFile("input.infile_", filepath.Base(zipPath))
			if err != nil {
				return fmt.Errorf("create file part: %w", err)
			}

			if _, err := io.Copy(part, f); err != nil {
				return fmt.Errorf("read job zip: %w", err)
			}

			if err := w.WriteField("metadata.statusEmail", "true"); err != nil {
				return fmt.Errorf("write metadata field: %w", err)
			}

			return w.Close()
		}()

		pw.CloseWithError(err)
	}()

	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/job/"+c.creds.Username, pr)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", w.FormDataContentType())

	c.log.Debug().Str("tool", tool).Str("zip", zipPath).Msg("submit job")

	// The default client timeout is too tight for uploads, so the submit
	// deadline comes from the request context instead.
	hc := *c.hc
	hc.Timeout = 0

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read submit response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("submit job: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParseJobStatus(body)
}

// ListResults fetches the output file listing of a completed job.
func (c *Client) ListResults(ctx context.Context, jobURLOrID string) ([]OutputFile, error) {
	status, err := c.GetJobStatus(ctx, jobURLOrID)
	if err != nil {
		return nil, err
	}

	if status.ResultsURI == "" {
		return nil, fmt.Errorf("%w: job %s is in stage %s", ErrNoResults, status.JobID, status.Stage)
	}

	path, ok := strings.CutPrefix(status.ResultsURI, c.baseURL)
	if !ok {
		return nil, fmt.Errorf("results URL %q does not match API endpoint %s", status.ResultsURI, c.baseURL)
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	return ParseOutputFiles(body)
}

// DownloadResults fetches every output file of a job into outputDir. The
// progress callback, when non-nil, is invoked as each file streams in.
func (c *Client) DownloadResults(ctx context.Context, jobURLOrID, outputDir string, progress ProgressFunc) ([]DownloadedFile, error) {
	files, err := c.ListResults(ctx, jobURLOrID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	downloaded := make([]DownloadedFile, 0, len(files))

	for _, file := range files {
		outPath := filepath.Join(outputDir, file.Filename)
		if err := c.downloadFile(ctx, file, outPath, progress); err != nil {
			return downloaded, err
		}

		downloaded = append(downloaded, DownloadedFile{
			Filename: file.Filename,
			Path:     outPath,
			Size:     file.Size,
		})
	}

	return downloaded, nil
}

func (c *Client) downloadFile(ctx context.Context, file OutputFile, outPath string, progress ProgressFunc) error {
	path, ok := strings.CutPrefix(file.DownloadURI, c.baseURL)
	if !ok {
		return fmt.Errorf("download URL %q does not match API endpoint %s", file.DownloadURI, c.baseURL)
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	c.log.Debug().Str("file", file.Filename).Int64("size", file.Size).Msg("download")

	// Large result files can exceed the default client timeout.
	hc := *c.hc
	hc.Timeout = 0

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", file.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("download %s: HTTP %d", file.Filename, resp.StatusCode)
	}

	dest, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, downloadFilePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer dest.Close()

	var written int64

	buf := make([]byte, downloadBufSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := dest.Write(buf[:n]); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			written += int64(n)
			if progress != nil {
				progress(file.Filename, written, file.Size)
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return fmt.Errorf("read %s: %w", file.Filename, readErr)
		}
	}

	return nil
}
