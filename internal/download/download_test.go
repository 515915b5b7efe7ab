// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/litmesh/pkg/types"
)

// --- MakeFilename ---

func TestMakeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1234/paper.v1", "10.1234_paper.v1"},
		{"10.1234/a/b", "10.1234_a_b"},
		{`10.1234/weird:"name?`, "10.1234_weird__name_"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := MakeFilename(tt.in); got != tt.want {
			t.Errorf("MakeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- ArxivDOIFromURL ---

func TestArxivDOIFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://arxiv.org/abs/1908.06954v2", "10.48550/arXiv.1908.06954"},
		{"http://arxiv.org/pdf/1706.03762", "10.48550/arXiv.1706.03762"},
		{"https://example.com/paper", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ArxivDOIFromURL(tt.in); got != tt.want {
			t.Errorf("ArxivDOIFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- Fetch ---

// fakeDownloader serves canned PDFs keyed by DOI.
type fakeDownloader struct {
	name string
	pdfs map[string][]byte
}

func (f *fakeDownloader) Name() string { return f.name }

func (f *fakeDownloader) Download(_ context.Context, doi string) ([]byte, error) {
	pdf, ok := f.pdfs[doi]
	if !ok {
		return nil, fmt.Errorf("%w for DOI %s", ErrNotFound, doi)
	}
	return pdf, nil
}

func TestFetchWritesPDFs(t *testing.T) {
	dir := t.TempDir()
	d := &fakeDownloader{name: "fake", pdfs: map[string][]byte{
		"10.1/a": []byte("pdf-a"),
		"10.1/b": []byte("pdf-b"),
	}}

	var results []Result
	err := Fetch(context.Background(), []string{"10.1/a", "10.1/b"}, []Downloader{d},
		types.DownloadConfig{OutputDir: dir},
		func(r Result) bool {
			results = append(results, r)
			return true
		})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if !r.OK() {
			t.Errorf("result for %s failed: %v", r.DOI, r.Err)
		}
		if r.Source != "fake" {
			t.Errorf("Source = %q", r.Source)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "10.1_a.pdf"))
	if err != nil {
		t.Fatalf("reading written PDF: %v", err)
	}
	if string(data) != "pdf-a" {
		t.Errorf("PDF content = %q", data)
	}
}

func TestFetchTriesDownloadersInOrder(t *testing.T) {
	dir := t.TempDir()
	first := &fakeDownloader{name: "first", pdfs: nil}
	second := &fakeDownloader{name: "second", pdfs: map[string][]byte{"10.1/x": []byte("pdf")}}

	var got Result
	err := Fetch(context.Background(), []string{"10.1/x"}, []Downloader{first, second},
		types.DownloadConfig{OutputDir: dir},
		func(r Result) bool {
			got = r
			return true
		})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !got.OK() || got.Source != "second" {
		t.Errorf("result = %+v, want success from the second downloader", got)
	}
}

func TestFetchReportsFailure(t *testing.T) {
	dir := t.TempDir()
	d := &fakeDownloader{name: "fake"}

	var got Result
	err := Fetch(context.Background(), []string{"10.1/missing"}, []Downloader{d},
		types.DownloadConfig{OutputDir: dir},
		func(r Result) bool {
			got = r
			return true
		})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.OK() || !errors.Is(got.Err, ErrNotFound) {
		t.Errorf("result = %+v, want ErrNotFound", got)
	}
	if got.Filename != "" {
		t.Errorf("Filename = %q, want empty on failure", got.Filename)
	}
}

func TestFetchYieldStops(t *testing.T) {
	dir := t.TempDir()
	d := &fakeDownloader{name: "fake", pdfs: map[string][]byte{
		"10.1/a": []byte("a"),
		"10.1/b": []byte("b"),
	}}

	count := 0
	err := Fetch(context.Background(), []string{"10.1/a", "10.1/b"}, []Downloader{d},
		types.DownloadConfig{OutputDir: dir},
		func(Result) bool {
			count++
			return false
		})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if count != 1 {
		t.Errorf("yield called %d times after returning false, want 1", count)
	}
}

func TestFetchNoDownloaders(t *testing.T) {
	err := Fetch(context.Background(), []string{"10.1/a"}, nil,
		types.DownloadConfig{OutputDir: t.TempDir()}, func(Result) bool { return true })
	if err == nil {
		t.Fatal("expected error for empty downloader chain")
	}
}

// --- Unpaywall ---

func withUnpaywallServer(t *testing.T, handler http.HandlerFunc, email string) *Unpaywall {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	oldAPI, oldPDF := unpaywallAPIBase, arxivPDFBase
	unpaywallAPIBase = ts.URL + "/v2"
	arxivPDFBase = ts.URL + "/pdf"
	t.Cleanup(func() {
		unpaywallAPIBase = oldAPI
		arxivPDFBase = oldPDF
	})

	u := NewUnpaywall(types.DownloadConfig{UnpaywallEmail: email})
	u.client = ts.Client()
	return u
}

func TestUnpaywallDownload(t *testing.T) {
	var gotEmail string
	u := withUnpaywallServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/10.1/x":
			gotEmail = r.URL.Query().Get("email")
			fmt.Fprintf(w, `{"oa_locations":[
				{"url_for_pdf":""},
				{"url_for_pdf":"%s"}
			]}`, "http://"+r.Host+"/paper.pdf")
		case r.URL.Path == "/paper.pdf":
			fmt.Fprint(w, "pdf-bytes")
		default:
			http.NotFound(w, r)
		}
	}, "researcher@example.com")

	pdf, err := u.Download(context.Background(), "10.1/x")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(pdf) != "pdf-bytes" {
		t.Errorf("pdf = %q", pdf)
	}
	if gotEmail != "researcher@example.com" {
		t.Errorf("email = %q", gotEmail)
	}
}

func TestUnpaywallArxivFallback(t *testing.T) {
	u := withUnpaywallServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/10.48550/arXiv.1706.03762":
			// Record exists but has no open-access locations.
			fmt.Fprint(w, `{"oa_locations":[]}`)
		case r.URL.Path == "/pdf/1706.03762.pdf":
			fmt.Fprint(w, "arxiv-pdf")
		default:
			http.NotFound(w, r)
		}
	}, "researcher@example.com")

	pdf, err := u.Download(context.Background(), "10.48550/arXiv.1706.03762")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(pdf) != "arxiv-pdf" {
		t.Errorf("pdf = %q", pdf)
	}
}

func TestUnpaywallNotFound(t *testing.T) {
	u := withUnpaywallServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, "researcher@example.com")

	_, err := u.Download(context.Background(), "10.1/absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUnpaywallMissingEmail(t *testing.T) {
	t.Setenv("UNPAYWALL_EMAIL", "")
	u := NewUnpaywall(types.DownloadConfig{})
	_, err := u.Download(context.Background(), "10.1/x")
	if err == nil || !strings.Contains(err.Error(), "email required") {
		t.Errorf("err = %v, want email-required message", err)
	}
}

func TestUnpaywallName(t *testing.T) {
	if got := NewUnpaywall(types.DownloadConfig{}).Name(); got != "open_access" {
		t.Errorf("Name() = %q", got)
	}
}
