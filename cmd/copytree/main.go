// Command copytree packages a filtered, transformed subset of a source tree
// into a single document for LLM prompts.
package main

import (
	"os"

	"github.com/copytree/copytree/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
