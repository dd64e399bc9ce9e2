// Package main provides the entry point for the tokenbot CLI.
//
// Usage:
//
//	tokenbot run --config config.yaml
//	tokenbot check <contract-address>
package main

func main() {
	Execute()
}
