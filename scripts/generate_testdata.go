//go:build ignore

// generate_testdata.go creates fixture datasets for manual testing and
// benchmarking against --fixture.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/fixtures/small.json   (100 records)
//	testdata/fixtures/medium.json  (1000 records, one full page)
//	testdata/fixtures/large.json   (2500 records, three pages)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/propdeck/pkg/testutil"
)

var datasets = []struct {
	name string
	size int
}{
	{"small", 100},
	{"medium", 1000},
	{"large", 2500},
}

func main() {
	outputDir := filepath.Join("testdata", "fixtures")

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d records)...\n", ds.name, ds.size)
		records := testutil.GenerateRecords(ds.size, testutil.GeneratorConfig{
			Seed: int64(ds.size), // Reproducible per-size
		})
		path := filepath.Join(outputDir, ds.name+".json")
		if err := testutil.WriteFixture(path, records); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
	}
	fmt.Println("Done. Try: propdeck --fixture testdata/fixtures/medium.json")
}
