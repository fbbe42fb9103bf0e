// Package main provides the cargohold CLI.
package main

import "github.com/mesh-intelligence/cargohold/internal/cli"

func main() {
	cli.Execute()
}
