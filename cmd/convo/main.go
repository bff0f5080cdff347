// Command convo is the command-line surface over the conversation session
// core: it opens an agent, drives an interactive chat loop, and exposes
// listing, info, export and override flags.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
