//go:build mage

// Package main provides build targets for the cargohold project using Mage.
//
// Usage:
//
//	mage build       Compile the cargohold binary to bin/
//	mage test:all    Run every test
//	mage test:short  Run tests with -short
//	mage test:cover  Run tests and write coverage.out
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install cargohold to GOPATH/bin
//	mage stats       Print Go line counts
package main
