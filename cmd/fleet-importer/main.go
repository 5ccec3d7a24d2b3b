package main

import "github.com/oshokin/fleet-importer/cmd/fleet-importer/cmd"

func main() {
	cmd.Execute()
}
