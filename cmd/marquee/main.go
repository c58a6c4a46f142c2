// Package main is the marquee entrypoint.
package main

import "github.com/mesh-intelligence/marquee/internal/cli"

func main() {
	cli.Execute()
}
