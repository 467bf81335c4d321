package build

import (
	"time"
)

// PageResult records what happened to one page in one language
type PageResult struct {
	Page     string        `json:"page"`
	Lang     string        `json:"lang"`
	Template string        `json:"template,omitempty"`
	Output   string        `json:"output,omitempty"`
	Bytes    int           `json:"bytes"`
	Skipped  bool          `json:"skipped,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the page failed to build
func (r PageResult) Failed() bool {
	return r.Error != ""
}

// Report summarises a build
type Report struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Rendered     int           `json:"rendered"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	Warnings     int           `json:"warnings"`
	Bytes        int64         `json:"bytes"`
	StaticFiles  int           `json:"static_files"`
	SiteWarnings []string      `json:"site_warnings,omitempty"`
	Pages        []PageResult  `json:"pages"`
}

// OK reports whether every page built
func (r *Report) OK() bool {
	return r.Failed == 0
}

func (r *Report) tally() {
	r.Rendered, r.Skipped, r.Failed, r.Warnings, r.Bytes = 0, 0, 0, 0, 0
	for _, p := range r.Pages {
		switch {
		case p.Failed():
			r.Failed++
		case p.Skipped:
			r.Skipped++
		default:
			r.Rendered++
			r.Bytes += int64(p.Bytes)
		}
		r.Warnings += len(p.Warnings)
	}
}
