// loo reruns commands whenever the files they use change.
package main

import (
	"os"

	"github.com/loopwatch/loo/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
