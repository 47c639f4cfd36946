package main

import "github.com/oshokin/rig-panel/cmd/rig-simulator/cmd"

func main() {
	cmd.Execute()
}
