// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litmesh/pkg/types"
)

// unpaywallAPIBase is the Unpaywall lookup endpoint. Declared as a var
// so tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2"

// arxivPDFBase serves arXiv PDFs directly, used as a fallback for
// arXiv-minted DOIs when Unpaywall has no open-access location.
var arxivPDFBase = "https://arxiv.org/pdf"

// arXiv DOIs are minted under this prefix (10.48550/arXiv.<id>).
const arxivDOIPrefix = "10.48550/arxiv."

// Unpaywall resolves DOIs to open-access PDF locations via the
// Unpaywall API. The API requires a contact email.
type Unpaywall struct {
	Logger zerolog.Logger

	cfg    types.HTTPConfig
	email  string
	client *http.Client
}

// NewUnpaywall builds the downloader from download settings. The email
// falls back to the UNPAYWALL_EMAIL environment variable.
func NewUnpaywall(cfg types.DownloadConfig) *Unpaywall {
	email := cfg.UnpaywallEmail
	if email == "" {
		email = os.Getenv("UNPAYWALL_EMAIL")
	}
	return &Unpaywall{
		cfg:    cfg.HTTPConfig,
		email:  email,
		client: newHTTPClient(cfg.HTTPConfig),
	}
}

// Name returns the downloader identifier.
func (u *Unpaywall) Name() string { return "open_access" }

// Download looks the DOI up in Unpaywall and fetches the first
// open-access location that serves a PDF. arXiv DOIs fall back to the
// direct arXiv PDF URL when no location works.
func (u *Unpaywall) Download(ctx context.Context, doi string) ([]byte, error) {
	if u.email == "" {
		return nil, fmt.Errorf("unpaywall: contact email required (set UNPAYWALL_EMAIL or configure unpaywall_email)")
	}

	locations, err := u.lookupLocations(ctx, doi)
	if err != nil {
		return nil, err
	}
	for _, loc := range locations {
		if loc.PDFURL == "" {
			continue
		}
		pdf, err := u.get(ctx, loc.PDFURL)
		if err != nil {
			u.Logger.Debug().Str("doi", doi).Str("url", loc.PDFURL).Err(err).
				Msg("open-access location failed, trying next")
			continue
		}
		return pdf, nil
	}

	if id, ok := strings.CutPrefix(strings.ToLower(doi), arxivDOIPrefix); ok {
		return u.get(ctx, arxivPDFBase+"/"+id+".pdf")
	}
	return nil, fmt.Errorf("%w for DOI %s", ErrNotFound, doi)
}

type unpaywallLocation struct {
	PDFURL string `json:"url_for_pdf"`
}

// lookupLocations queries the Unpaywall record for the DOI. A missing
// record (HTTP 404) means no open-access copy, not a hard failure.
func (u *Unpaywall) lookupLocations(ctx context.Context, doi string) ([]unpaywallLocation, error) {
	reqURL := fmt.Sprintf("%s/%s?email=%s", unpaywallAPIBase, doi, u.email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(u.cfg))

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Unpaywall API returned HTTP %d", resp.StatusCode)
	}

	var record struct {
		OALocations []unpaywallLocation `json:"oa_locations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("parsing Unpaywall response: %w", err)
	}
	return record.OALocations, nil
}

// get fetches a PDF URL, following redirects.
func (u *Unpaywall) get(ctx context.Context, pdfURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(u.cfg))

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching PDF: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PDF fetch returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func userAgent(cfg types.HTTPConfig) string {
	if cfg.UserAgent == "" {
		return types.DefaultHTTP().UserAgent
	}
	return cfg.UserAgent
}
