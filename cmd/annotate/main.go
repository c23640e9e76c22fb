// Command annotate prints a passage with its entities highlighted by
// cultural category, the way the reader page shows them.
//
// Usage:
//
//	annotate passage.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lexiqai/reader-gateway/internal/annotate"
)

func main() {
	legend := flag.Bool("legend", true, "print the category legend")
	stats := flag.Bool("stats", true, "print entity statistics")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] passage.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	passage, err := LoadPassageFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "annotate: %v\n", err)
		os.Exit(1)
	}

	segments, st := annotate.AnnotateWithStats(passage.Text, passage.Entities)

	fmt.Print(renderPassage(passage, segments))
	if *legend {
		fmt.Println()
		fmt.Println(renderLegend())
	}
	if *stats {
		fmt.Println(renderStats(st))
	}
}
