// Package main provides the entry point for the RCON worker pool gateway.
package main

import "github.com/mjmorales/rcon-worker-pool/cmd"

func main() {
	cmd.Execute()
}
