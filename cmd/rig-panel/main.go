package main

import "github.com/oshokin/rig-panel/cmd/rig-panel/cmd"

func main() {
	cmd.Execute()
}
