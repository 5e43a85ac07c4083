package progress

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies what an Event reports.
type Kind string

// Supported event kinds.
const (
	KindRunStart    Kind = "RUN_START"
	KindPageDone    Kind = "PAGE_DONE"
	KindPageFailed  Kind = "PAGE_FAILED"
	KindPageSkipped Kind = "PAGE_SKIPPED"
	KindRunDone     Kind = "RUN_DONE"
)

// Event is one milestone of a pipeline run.
type Event struct {
	RunID string        `json:"run_id"`
	TS    time.Time     `json:"ts"`
	Kind  Kind          `json:"kind"`
	URL   string        `json:"url,omitempty"`
	Stage string        `json:"stage,omitempty"`
	Dur   time.Duration `json:"duration_ns,omitempty"`
	// Pages is the number of fetchable pages on RUN_START.
	Pages int `json:"pages,omitempty"`
	// Processed and Failed are totals carried by RUN_DONE.
	Processed int    `json:"processed,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Validate rejects events missing the fields their kind requires.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Kind {
	case KindRunStart, KindRunDone:
	case KindPageDone, KindPageSkipped:
		if e.URL == "" {
			return fmt.Errorf("%s requires url", e.Kind)
		}
	case KindPageFailed:
		if e.URL == "" || e.Stage == "" {
			return errors.New("page failure requires url and stage")
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
