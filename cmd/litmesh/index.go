// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmesh/internal/fulltext"
)

// defaultIndexPath is used when no path is configured.
const defaultIndexPath = ".litmesh/fulltext.db"

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the local fulltext index",
	Long: `Index manages the local fulltext index that backs fulltext queries on
providers without native fulltext search. Papers are stored as
identifier (DOI or provider id) plus extracted text.`,
}

var indexAddCmd = &cobra.Command{
	Use:   "add <paper-id> [file]",
	Short: "Add or replace a paper's fulltext",
	Long: `Add stores extracted text for a paper under its identifier, replacing
any previous text. The text comes from the file argument or stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIndexAdd,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search the fulltext index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexSearch,
}

func init() {
	indexCmd.PersistentFlags().String("index", "", "index file path (default from config, else "+defaultIndexPath+")")
	indexSearchCmd.Flags().Int("limit", 20, "maximum matches to print (0 = unlimited)")

	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexSearchCmd)
	rootCmd.AddCommand(indexCmd)
}

func openIndex(cmd *cobra.Command) (*fulltext.Index, error) {
	path, _ := cmd.Flags().GetString("index")
	if path == "" {
		path = cfg.Search.FulltextIndexPath
	}
	if path == "" {
		path = defaultIndexPath
	}
	return fulltext.Open(path)
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	paperID := args[0]

	var text []byte
	var err error
	if len(args) == 2 {
		text, err = os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading text file: %w", err)
		}
	} else {
		text, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}
	if len(text) == 0 {
		return fmt.Errorf("no text provided for %s", paperID)
	}

	idx, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := interruptible()
	defer stop()

	if err := idx.Add(ctx, paperID, string(text)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexed %s (%d bytes)\n", paperID, len(text))
	return nil
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	term := args[0]
	limit, _ := cmd.Flags().GetInt("limit")

	idx, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := interruptible()
	defer stop()

	ids, err := idx.Search(ctx, term, limit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Fprintf(os.Stderr, "%d matches\n", len(ids))
	return nil
}
