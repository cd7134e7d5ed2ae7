// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import "fmt"

// Status reports whether one binary was found on PATH.
type Status struct {
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Required bool   `json:"required" yaml:"required"`
	Err      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Found reports whether the binary resolved.
func (s Status) Found() bool { return s.Path != "" }

// Requirement names a binary and whether the pipeline can run without it.
type Requirement struct {
	Name     string
	Required bool
}

// Detect resolves every requirement on PATH. It never fails; missing
// binaries are reported in their Status.
func Detect(e Executor, reqs ...Requirement) []Status {
	out := make([]Status, 0, len(reqs))
	for _, r := range reqs {
		st := Status{Name: r.Name, Required: r.Required}
		if r.Name == "" {
			continue
		}
		path, err := e.LookPath(r.Name)
		if err != nil {
			st.Err = err.Error()
		} else {
			st.Path = path
		}
		out = append(out, st)
	}
	return out
}

// Missing returns an error naming every required binary that was not
// found, or nil.
func Missing(statuses []Status) error {
	var names []string
	for _, s := range statuses {
		if s.Required && !s.Found() {
			names = append(names, s.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("required tools not found on PATH: %v", names)
}
