package main

import "github.com/atdiar/reactive/cmd/reactive/cmd"

func main() {
	cmd.Execute()
}
