package main

import (
	"github.com/sidkik/dropletctl/cmd"
	"github.com/sidkik/dropletctl/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
