// 18 Oct 2026

package main

import (
	"os"

	"github.com/andrew-torda/afprep/pkg/afprep"
)

func main() {
	os.Exit(afprep.MyMain(os.Args[1:]))
}
