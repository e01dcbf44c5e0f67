package history

import "time"

// Status is the outcome of one processed source.
type Status string

const (
	// StatusImported marks a sprite committed into a GameMaker project.
	StatusImported Status = "imported"
	// StatusExported marks a standalone GIF/PNG/WebP or OGG written to disk.
	StatusExported Status = "exported"
	// StatusFailed marks a source whose processing returned an error.
	StatusFailed Status = "failed"
)

// Mode values recorded alongside each entry.
const (
	ModeProject    = "project"
	ModeStandalone = "standalone"
	ModeMusic      = "music"
)

// Entry is one row of the imports table.
type Entry struct {
	ID        int64         `json:"id"`
	Source    string        `json:"source"`
	Resource  string        `json:"resource"`
	Mode      string        `json:"mode"`
	Output    string        `json:"output,omitempty"`
	Frames    int           `json:"frames"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	BBox      string        `json:"bbox,omitempty"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// Failed reports whether the entry records an error.
func (e Entry) Failed() bool {
	return e.Status == StatusFailed
}
