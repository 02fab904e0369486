package nsg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testCreds() Credentials {
	return Credentials{Username: "alice", Password: "secret", AppKey: "key-123"}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testCreds(), WithBaseURL(srv.URL)), srv
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotUser, gotPass, gotKey string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		gotKey = r.Header.Get("cipres-appkey")
		fmt.Fprint(w, jobListXML)
	}))

	if err := client.TestConnection(context.Background()); err != nil {
		t.Fatalf("test connection: %v", err)
	}
	if gotUser != "alice" || gotPass != "secret" {
		t.Fatalf("basic auth not sent: %q/%q", gotUser, gotPass)
	}
	if gotKey != "key-123" {
		t.Fatalf("app key header not sent: %q", gotKey)
	}
}

func TestTestConnectionAuthFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if err := client.TestConnection(context.Background()); err == nil {
		t.Fatal("expected auth failure")
	}
}

func TestListJobs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job/alice" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, jobListXML)
	}))

	jobs, err := client.ListJobs(context.Background())
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestGetJobStatusResolvesHandle(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job/alice/NGBW-JOB-PY_EXPANSE-AAA" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, jobStatusXML)
	}))

	status, err := client.GetJobStatus(context.Background(), "NGBW-JOB-PY_EXPANSE-AAA")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status.Stage != "COMPLETED" {
		t.Fatalf("unexpected stage: %q", status.Stage)
	}
}

func TestGetJobStatusResolvesAbsoluteURL(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job/alice/NGBW-JOB-PY_EXPANSE-AAA" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, jobStatusXML)
	}))

	if _, err := client.GetJobStatus(context.Background(), srv.URL+"/job/alice/NGBW-JOB-PY_EXPANSE-AAA"); err != nil {
		t.Fatalf("get status by URL: %v", err)
	}
}

func TestGetJobStatusRejectsForeignURL(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, jobStatusXML)
	}))

	if _, err := client.GetJobStatus(context.Background(), "https://evil.example.com/job/x"); err == nil {
		t.Fatal("expected error for URL outside the API endpoint")
	}
}

func TestGetRetriesTransientErrors(t *testing.T) {
	attempts := 0

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, jobListXML)
	}))

	if _, err := client.ListJobs(context.Background()); err != nil {
		t.Fatalf("list jobs after retries: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestSubmitJob(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "job.zip")
	if err := os.WriteFile(zipPath, []byte("fake zip bytes"), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("tool"); got != "PY_EXPANSE" {
			t.Errorf("unexpected tool: %q", got)
		}
		if got := r.FormValue("metadata.statusEmail"); got != "true" {
			t.Errorf("statusEmail not set: %q", got)
		}
		file, header, err := r.FormFile("input.infile_")
		if err != nil {
			t.Errorf("file part missing: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "job.zip" {
			t.Errorf("unexpected filename: %q", header.Filename)
		}
		fmt.Fprint(w, jobStatusXML)
	}))

	status, err := client.SubmitJob(context.Background(), zipPath, "PY_EXPANSE")
	if err != nil {
		t.Fatalf("submit job: %v", err)
	}
	if status.JobID != "NGBW-JOB-PY_EXPANSE-AAA" {
		t.Fatalf("unexpected job id: %q", status.JobID)
	}
}

func TestSubmitJobStreamsLargeArchive(t *testing.T) {
	const zipSize = 4 << 20

	zipPath := filepath.Join(t.TempDir(), "job.zip")
	if err := os.WriteFile(zipPath, make([]byte, zipSize), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	var received int64

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Consume the body part by part, the way a server would for a
		// chunked upload with no Content-Length.
		if r.ContentLength > 0 {
			t.Errorf("expected chunked upload, got Content-Length %d", r.ContentLength)
		}
		mr, err := r.MultipartReader()
		if err != nil {
			t.Errorf("multipart reader: %v", err)
			return
		}
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			n, _ := io.Copy(io.Discard, part)
			if part.FormName() == "input.infile_" {
				received = n
			}
		}
		fmt.Fprint(w, jobStatusXML)
	}))

	if _, err := client.SubmitJob(context.Background(), zipPath, "PY_EXPANSE"); err != nil {
		t.Fatalf("submit job: %v", err)
	}
	if received != zipSize {
		t.Fatalf("server received %d bytes, want %d", received, zipSize)
	}
}

func TestSubmitJobServerError(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "job.zip")
	if err := os.WriteFile(zipPath, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "tool unknown", http.StatusBadRequest)
	}))

	if _, err := client.SubmitJob(context.Background(), zipPath, "NOPE"); err == nil {
		t.Fatal("expected submit error")
	}
}

func TestListResultsBeforeCompletion(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<jobstatus><jobHandle>NGBW-JOB-X</jobHandle><jobStage>QUEUE</jobStage></jobstatus>`)
	}))

	_, err := client.ListResults(context.Background(), "NGBW-JOB-X")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestDownloadResults(t *testing.T) {
	const fileBody = `{"status":"completed"}`

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/job/alice/NGBW-JOB-X", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<jobstatus>
  <jobHandle>NGBW-JOB-X</jobHandle>
  <jobStage>COMPLETED</jobStage>
  <resultsUri><url>%s/job/alice/NGBW-JOB-X/output</url></resultsUri>
</jobstatus>`, srv.URL)
	})
	mux.HandleFunc("/job/alice/NGBW-JOB-X/output", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<results><jobfiles><jobfile>
  <downloadUri><url>%s/job/alice/NGBW-JOB-X/output/1</url></downloadUri>
  <filename>test_output.json</filename>
  <length>%d</length>
</jobfile></jobfiles></results>`, srv.URL, len(fileBody))
	})
	mux.HandleFunc("/job/alice/NGBW-JOB-X/output/1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, fileBody)
	})

	client := NewClient(testCreds(), WithBaseURL(srv.URL))
	outputDir := filepath.Join(t.TempDir(), "results")

	var lastFile string
	var lastDownloaded, lastTotal int64

	downloaded, err := client.DownloadResults(context.Background(), "NGBW-JOB-X", outputDir,
		func(filename string, got, total int64) {
			lastFile, lastDownloaded, lastTotal = filename, got, total
		})
	if err != nil {
		t.Fatalf("download results: %v", err)
	}
	if len(downloaded) != 1 {
		t.Fatalf("expected 1 file, got %d", len(downloaded))
	}

	data, err := os.ReadFile(downloaded[0].Path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != fileBody {
		t.Fatalf("unexpected file body: %q", data)
	}
	if lastFile != "test_output.json" {
		t.Fatalf("progress callback file: %q", lastFile)
	}
	if lastDownloaded != int64(len(fileBody)) || lastTotal != int64(len(fileBody)) {
		t.Fatalf("progress callback bytes: %d/%d", lastDownloaded, lastTotal)
	}
}
