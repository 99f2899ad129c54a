// Command eximgdump prints the Model and DateTimeOriginal tags, and any
// read warnings, of each image file named on the command line, a thin
// dispatcher over the eximg façade mirroring the teacher's exifstat
// example harness.
package main

import (
	"fmt"
	"os"

	"github.com/jrm-1535/eximg"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: eximgdump <path>")
		os.Exit(1)
	}
	for _, path := range os.Args[1:] {
		md, err := eximg.ReadMetadataFromPath(path, eximg.DefaultControl())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Printf("%s:\n", path)
		if v, ok := md.GetTag(eximg.IFD0, 0x0110); ok {
			fmt.Printf("  Model: %s\n", v.Text)
		}
		if v, ok := md.GetTag(eximg.ExifIFD, 0x9003); ok {
			fmt.Printf("  DateTimeOriginal: %s\n", v.Text)
		}
		for _, w := range md.Warnings() {
			fmt.Printf("  warning: %s\n", w)
		}
	}
}
