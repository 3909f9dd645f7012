// compileinfoprint is imported by the qfeatures tools for the side effect of
// printing their build information to os.Stderr before anything else runs.
package compileinfoprint

import (
	"os"

	"github.com/carbocation/qfeatures/compileinfo"
)

func init() {
	compileinfo.Fprint(os.Stderr)
}
