// Package main is the entry point for the semgrepd CLI.
package main

import "github.com/pinemarten/semgrepd/cmd"

func main() {
	cmd.Execute()
}
