package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/transflow/internal/profile"
)

// PrecheckError aborts a pipeline run before any provider or process work
// starts. Codes are the blocking validation codes, verbatim.
type PrecheckError struct {
	Pipeline string
	Codes    []string
}

func (e *PrecheckError) Error() string {
	name := e.Pipeline
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("pipeline %s failed precheck: %s", name, strings.Join(e.Codes, ", "))
}

// Precheck validates a pipeline document against idx and returns a
// *PrecheckError when the run must not start.
func Precheck(doc profile.Document, idx profile.Index) error {
	res := Validate(string(profile.KindPipeline), doc, idx)
	if res.OK() {
		return nil
	}
	return &PrecheckError{Pipeline: profile.ID(doc), Codes: res.Errors}
}
