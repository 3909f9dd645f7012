package main

import (
	"fmt"
	"sort"
	"strings"
)

// Step is one level of aggregation, e.g. Sequence:peptides groups the
// previous assay's rows by their Sequence into a new assay named peptides.
type Step struct {
	Column string
	To     string
}

// ParseSteps reads a comma separated list of column:name pairs.
func ParseSteps(s string) ([]Step, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var out []Step
	for _, part := range strings.Split(s, ",") {
		pieces := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pieces) != 2 || pieces[0] == "" || pieces[1] == "" {
			return nil, fmt.Errorf("step %q is not of the form column:name", part)
		}
		out = append(out, Step{Column: pieces[0], To: pieces[1]})
	}
	return out, nil
}

func methodNames[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
