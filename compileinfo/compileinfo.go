// Package compileinfo reports how a qfeatures tool was built, so that results
// can be traced back to the code that produced them.
package compileinfo

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
)

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool

	// Versions of the numeric and storage libraries whose behaviour can
	// change results.
	Deps map[string]string
}

// tracked are the dependencies worth reporting.
var tracked = []string{
	"gonum.org/v1/gonum",
	"github.com/montanaflynn/stats",
	"github.com/mattn/go-sqlite3",
}

func (c CompileInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "This %s binary (%s) was built with %s at commit %v at time %v.", c.Package, c.Version, c.GoVersion, c.Commit, c.CommitTime)
	if c.Modified {
		b.WriteString(" Files in the repo were modified after that commit.")
	}
	for _, path := range tracked {
		if v, ok := c.Deps[path]; ok {
			fmt.Fprintf(&b, " %s@%s", path, v)
		}
	}
	return b.String()
}

func Get() CompileInfo {
	out := CompileInfo{Deps: map[string]string{}}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}
	for _, d := range z.Deps {
		for _, path := range tracked {
			if d.Path == path {
				out.Deps[path] = d.Version
			}
		}
	}

	return out
}

func Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s\n", Get())
}
