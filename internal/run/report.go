package run

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/asynkron/aipatch/pkg/patch"
)

// Report is the outcome of a run: one result per block, in input order.
type Report struct {
	Results []patch.Result `json:"results"`
}

// ExitCode maps the report onto the process exit status: 0 when every block
// applied, 1 when any failed.
func (r Report) ExitCode() int {
	if patch.AnyFailed(r.Results) {
		return 1
	}
	return 0
}

// WriteText writes the human-readable report: one line per block, followed
// by the diff preview for results that carry one.
func (r Report) WriteText(w io.Writer) error {
	for _, res := range r.Results {
		if _, err := fmt.Fprintln(w, res.String()); err != nil {
			return err
		}
		if res.Preview == "" {
			continue
		}
		preview := res.Preview
		if !strings.HasSuffix(preview, "\n") {
			preview += "\n"
		}
		if _, err := io.WriteString(w, preview); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the report as indented JSON, previews included.
func (r Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
