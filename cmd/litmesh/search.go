// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmesh/internal/export"
	"github.com/pdiddy/litmesh/internal/query"
	"github.com/pdiddy/litmesh/internal/search"
	"github.com/pdiddy/litmesh/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for papers across providers",
	Long: `Search runs a Scopus-style query against the selected providers and
merges the results.

With the default tree format and no output file, results stream to the
terminal as they arrive. Every other format runs a batch search first.

Query syntax examples:
  TITLE(transformer) AND AUTHOR(Vaswani)
  TITLE-ABS-KEY(deep learning) AND PUBYEAR > 2019
  ALL(attention mechanism) AND NOT KEYWORD(survey)`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceP("provider", "p", []string{"arxiv", "openalex"},
		"providers to search ("+strings.Join(providerNames(), ", ")+")")
	searchCmd.Flags().StringP("format", "f", "tree",
		"output format ("+strings.Join(export.Formats(), ", ")+")")
	searchCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	searchCmd.Flags().IntP("max", "n", 100, "maximum results per provider")
	searchCmd.Flags().IntP("total", "t", 0, "maximum total results across providers (0 = unlimited)")
	searchCmd.Flags().String("on-error", "warn", "provider failure policy (fail, warn, ignore)")
	searchCmd.Flags().Bool("no-dedupe", false, "disable deduplication")
	searchCmd.Flags().String("save", "", "save the query and results to a YAML query file")

	rootCmd.AddCommand(searchCmd)
}

// buildProvider constructs a named provider from the search config.
func buildProvider(name string) (search.Provider, error) {
	switch name {
	case "arxiv":
		p := search.NewArxiv(cfg.Search)
		p.Logger = log
		return p, nil
	case "openalex":
		p := search.NewOpenAlex(cfg.Search)
		p.Logger = log
		return p, nil
	case "scopus":
		p := search.NewScopus(cfg.Search)
		p.Logger = log
		return p, nil
	case "semantic_scholar":
		p := search.NewSemanticScholar(cfg.Search)
		p.Logger = log
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (available: %s)",
			name, strings.Join(providerNames(), ", "))
	}
}

func providerNames() []string {
	return []string{"arxiv", "openalex", "scopus", "semantic_scholar"}
}

func runSearch(cmd *cobra.Command, args []string) error {
	queryStr := args[0]
	providerList, _ := cmd.Flags().GetStringSlice("provider")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	maxResults, _ := cmd.Flags().GetInt("max")
	total, _ := cmd.Flags().GetInt("total")
	onError, _ := cmd.Flags().GetString("on-error")
	noDedupe, _ := cmd.Flags().GetBool("no-dedupe")
	savePath, _ := cmd.Flags().GetString("save")

	policy := search.OnError(onError)
	if !policy.Valid() {
		return fmt.Errorf("invalid --on-error %q (fail, warn, ignore)", onError)
	}
	exporter, err := export.Get(format)
	if err != nil {
		return err
	}

	providers := make([]search.Provider, 0, len(providerList))
	for _, name := range providerList {
		p, err := buildProvider(name)
		if err != nil {
			return err
		}
		providers = append(providers, p)
	}

	opts := search.Options{
		MaxResults: maxResults,
		OnError:    policy,
		NoDedupe:   noDedupe,
		Logger:     log,
	}

	ctx, stop := interruptible()
	defer stop()

	// Tree output without a file streams papers as they arrive.
	if format == "tree" && output == "" && savePath == "" {
		return streamSearch(ctx, queryStr, providers, opts, total, noDedupe)
	}

	result, err := search.SearchString(ctx, queryStr, providers, opts)
	if err != nil {
		return err
	}
	if total > 0 && len(result.Papers) > total {
		result.Papers = result.Papers[:total]
	}

	if savePath != "" {
		q, err := query.Parse(queryStr)
		if err != nil {
			return err
		}
		names := make([]string, len(providers))
		for i, p := range providers {
			names[i] = p.Name()
		}
		if err := search.WriteQueryFile(savePath, q, names, opts, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query file to %s\n", savePath)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := exporter.Export(w, result); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported %d papers to %s\n", len(result.Papers), output)
	}

	printSummary(result)
	return nil
}

// streamSearch prints each paper as it arrives, deduplicating on the
// fly, and reports the count at the end.
func streamSearch(ctx context.Context, queryStr string, providers []search.Provider, opts search.Options, total int, noDedupe bool) error {
	items, err := search.StreamString(ctx, queryStr, providers, opts)
	if err != nil {
		return err
	}
	if total > 0 {
		items = search.Take(total, items)
	}

	seen := make(map[string]bool)
	count := 0
	for item := range items {
		if item.Err != nil {
			return item.Err
		}
		if !noDedupe {
			key := item.Paper.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		if count > 0 {
			fmt.Println()
		}
		fmt.Println(export.FormatPaper(item.Paper))
		count++
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d papers\n", count)
	return nil
}

func printSummary(result *types.SearchResult) {
	for name, err := range result.Errors {
		fmt.Fprintf(os.Stderr, "[WARN] %s: %v\n", name, err)
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d papers\n", len(result.Papers))
	names := make([]string, 0, len(result.TotalByProvider))
	for name := range result.TotalByProvider {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s: %d\n", name, result.TotalByProvider[name])
	}
}
