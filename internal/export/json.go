// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"io"

	"github.com/pdiddy/litmesh/pkg/types"
)

// JSON renders results as an indented JSON document. The envelope
// carries the papers plus totals and stringified provider errors, and
// is the format the download command accepts on stdin.
type JSON struct{}

type jsonEnvelope struct {
	Papers     []types.Paper     `json:"papers"`
	Total      int               `json:"total"`
	ByProvider map[string]int    `json:"by_provider,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func (JSON) Export(w io.Writer, result *types.SearchResult) error {
	env := jsonEnvelope{
		Papers:     result.Papers,
		Total:      len(result.Papers),
		ByProvider: result.TotalByProvider,
		Errors:     result.ErrorStrings(),
	}
	if env.Papers == nil {
		env.Papers = []types.Paper{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}
