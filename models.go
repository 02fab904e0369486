package nsg

import (
	"encoding/xml"
	"fmt"
)

// JobSummary is one entry of the job list resource.
type JobSummary struct {
	JobID string
	URL   string
}

// JobStatus is the decoded state of a single job.
type JobStatus struct {
	JobID         string
	Stage         string
	Failed        bool
	DateSubmitted string
	SelfURI       string
	ResultsURI    string
	Messages      []JobMessage
}

// JobMessage is a single status transition reported by the gateway.
type JobMessage struct {
	Stage     string
	Text      string
	Timestamp string
}

// OutputFile describes one downloadable result file of a completed job.
type OutputFile struct {
	Filename    string
	DownloadURI string
	Size        int64
}

// DownloadedFile records where an output file was stored locally.
type DownloadedFile struct {
	Filename string
	Path     string
	Size     int64
}

// uriRef mirrors the <selfUri>/<resultsUri>/<downloadUri> link elements
// the CIPRES REST API embeds in every resource.
type uriRef struct {
	URL   string `xml:"url"`
	Rel   string `xml:"rel"`
	Title string `xml:"title"`
}

type jobListDoc struct {
	XMLName xml.Name `xml:"joblist"`
	Jobs    []struct {
		SelfURI uriRef `xml:"selfUri"`
	} `xml:"jobs>jobstatus"`
}

type jobStatusDoc struct {
	XMLName       xml.Name `xml:"jobstatus"`
	SelfURI       uriRef   `xml:"selfUri"`
	JobHandle     string   `xml:"jobHandle"`
	JobStage      string   `xml:"jobStage"`
	Failed        bool     `xml:"failed"`
	DateSubmitted string   `xml:"dateSubmitted"`
	ResultsURI    uriRef   `xml:"resultsUri"`
	Messages      []struct {
		Timestamp string `xml:"timestamp"`
		Stage     string `xml:"stage"`
		Text      string `xml:"text"`
	} `xml:"messages>message"`
}

type resultsDoc struct {
	XMLName  xml.Name `xml:"results"`
	Jobfiles []struct {
		DownloadURI uriRef `xml:"downloadUri"`
		Filename    string `xml:"filename"`
		Length      int64  `xml:"length"`
	} `xml:"jobfiles>jobfile"`
}

// ParseJobList decodes the XML body of the job list resource.
func ParseJobList(body []byte) ([]JobSummary, error) {
	var doc jobListDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode job list: %w", err)
	}

	jobs := make([]JobSummary, 0, len(doc.Jobs))
	for _, j := range doc.Jobs {
		if j.SelfURI.URL == "" {
			continue
		}

		jobs = append(jobs, JobSummary{JobID: j.SelfURI.Title, URL: j.SelfURI.URL})
	}

	return jobs, nil
}

// ParseJobStatus decodes the XML body of a job status resource.
func ParseJobStatus(body []byte) (*JobStatus, error) {
	var doc jobStatusDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode job status: %w", err)
	}

	if doc.JobHandle == "" {
		return nil, fmt.Errorf("decode job status: missing job handle")
	}

	status := &JobStatus{
		JobID:         doc.JobHandle,
		Stage:         doc.JobStage,
		Failed:        doc.Failed,
		DateSubmitted: doc.DateSubmitted,
		SelfURI:       doc.SelfURI.URL,
		ResultsURI:    doc.ResultsURI.URL,
	}

	for _, m := range doc.Messages {
		status.Messages = append(status.Messages, JobMessage{
			Stage:     m.Stage,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}

	return status, nil
}

// ParseOutputFiles decodes the XML body of a job results resource.
func ParseOutputFiles(body []byte) ([]OutputFile, error) {
	var doc resultsDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	files := make([]OutputFile, 0, len(doc.Jobfiles))
	for _, f := range doc.Jobfiles {
		if f.Filename == "" || f.DownloadURI.URL == "" {
			continue
		}

		files = append(files, OutputFile{
			Filename:    f.Filename,
			DownloadURI: f.DownloadURI.URL,
			Size:        f.Length,
		})
	}

	return files, nil
}
