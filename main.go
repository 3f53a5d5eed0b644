// The main package for the spacepi executable.
package main

import (
	"github.com/mamaroma/SpacePi-PolytechUniversity/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
