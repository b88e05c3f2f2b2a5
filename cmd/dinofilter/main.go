// dinofilter builds creature tables (cloning costs, wild stats, data values)
// from game datasets, selected and named by layered YAML filters.
package main

import (
	"os"

	"github.com/hupe1980/dinofilter/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
