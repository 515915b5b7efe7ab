// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmesh/internal/download"
)

var downloadCmd = &cobra.Command{
	Use:   "download [doi]",
	Short: "Download open-access PDFs by DOI",
	Long: `Download resolves DOIs to open-access PDFs via the Unpaywall API, with
a direct arXiv fallback for arXiv-minted DOIs.

DOIs come from the positional argument, a file (--from, one DOI per
line, # comments allowed), or JSON piped from "litmesh search -f json".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("from", "", "file with DOIs, one per line")
	downloadCmd.Flags().StringP("output", "o", "", "output directory for PDFs (default \".\")")
	downloadCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	fromFile, _ := cmd.Flags().GetString("from")
	output, _ := cmd.Flags().GetString("output")
	delay, _ := cmd.Flags().GetDuration("delay")

	var dois []string
	var err error
	switch {
	case fromFile != "":
		dois, err = doisFromFile(fromFile)
		if err != nil {
			return err
		}
	case len(args) == 1:
		dois = []string{args[0]}
	default:
		dois = doisFromStdin()
	}
	if len(dois) == 0 {
		return fmt.Errorf("no DOIs provided: use a positional argument, --from, or pipe search JSON")
	}

	dcfg := cfg.Download
	if output != "" {
		dcfg.OutputDir = output
	}
	if dcfg.OutputDir == "" {
		dcfg.OutputDir = "."
	}
	if delay > 0 {
		dcfg.Delay = delay
	}
	if dcfg.Delay == 0 {
		dcfg.Delay = time.Second
	}

	unpaywall := download.NewUnpaywall(dcfg)
	unpaywall.Logger = log

	ctx, stop := interruptible()
	defer stop()

	fmt.Fprintf(os.Stderr, "Downloading %d papers to %s/\n", len(dois), dcfg.OutputDir)

	succeeded, failed := 0, 0
	err = download.Fetch(ctx, dois, []download.Downloader{unpaywall}, dcfg,
		func(r download.Result) bool {
			if r.OK() {
				fmt.Printf("  ✓ %s (%s)\n", r.Filename, r.Source)
				succeeded++
			} else {
				fmt.Printf("  ✗ %s - %v\n", r.DOI, r.Err)
				failed++
			}
			return true
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Downloaded: %d/%d | Failed: %d\n", succeeded, len(dois), failed)
	return nil
}

// doisFromFile reads one DOI per line, skipping blanks and # comments.
func doisFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading DOI file: %w", err)
	}
	defer f.Close()

	var dois []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dois = append(dois, line)
	}
	return dois, scanner.Err()
}

// doisFromStdin parses the JSON envelope the search command emits,
// deriving arXiv DOIs from URLs for papers reported without one.
func doisFromStdin() []string {
	var env struct {
		Papers []struct {
			DOI string `json:"doi"`
			URL string `json:"url"`
		} `json:"papers"`
	}
	if err := json.NewDecoder(os.Stdin).Decode(&env); err != nil {
		return nil
	}

	var dois []string
	for _, p := range env.Papers {
		switch {
		case p.DOI != "":
			dois = append(dois, p.DOI)
		default:
			if doi := download.ArxivDOIFromURL(p.URL); doi != "" {
				dois = append(dois, doi)
			}
		}
	}
	return dois
}
