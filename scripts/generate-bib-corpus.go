//go:build ignore

// Package main generates a synthetic BibTeX library for benchmarking.
// Usage: go run scripts/generate-bib-corpus.go -entries 10000 -output testdata/bench/library.bib
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/bibsearch/internal/bib"
	"github.com/Aman-CERP/bibsearch/internal/bibtex"
)

var (
	numEntries = flag.Int("entries", 10000, "Number of entries to generate")
	outputPath = flag.String("output", "testdata/bench/library.bib", "Output file")
	seed       = flag.Uint64("seed", 42, "Random seed for reproducibility")
	dupRate    = flag.Float64("duplicates", 0.01, "Fraction of entries reusing an earlier citation key")
)

var (
	surnames = []string{
		"Harrer", "Lenhard", "Wirtz", "Tonho", "Weber",
		"Fischer", "Schmidt", "Meyer", "Wagner", "Becker",
		"Kopp", "Leymann", "Dumas", "Mendling", "Reijers",
		"Aalst", "Hofstede", "Russell", "Pautasso", "Zimmermann",
	}
	initials = []string{"A.", "B.", "C.", "D.", "E.", "F.", "J.", "K.", "M.", "S."}
	subjects = []string{
		"Process Engines", "Workflow Patterns", "Choreographies", "Microservices",
		"Service Composition", "Conformance Checking", "Process Mining",
		"Event Logs", "Cloud Orchestration", "Business Rules",
		"Static Analysis", "Portability", "Benchmarking", "Data Flow",
	}
	qualifiers = []string{
		"On the", "Towards", "A Survey of", "Evaluating", "Revisiting",
		"Measuring", "Automating", "Verifying", "Comparing", "Modeling",
	}
	venues = []string{
		"BPM", "ICSOC", "CAiSE", "EDOC", "SOCA",
		"Information Systems", "Software and Systems Modeling",
		"Journal of Systems and Software", "IEEE Software",
	}
	types = []string{"article", "inproceedings", "incollection", "book", "techreport", "misc"}
)

func main() {
	flag.Parse()
	r := rand.New(rand.NewPCG(*seed, *seed))

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d entries in %s...\n", *numEntries, *outputPath)

	db := bib.NewDatabase()
	keys := make([]string, 0, *numEntries)
	for i := range *numEntries {
		e := generateEntry(r, i)
		if len(keys) > 0 && r.Float64() < *dupRate {
			e.SetCiteKey(keys[r.IntN(len(keys))])
		}
		keys = append(keys, e.CiteKey())
		db.InsertEntry(e)
	}

	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	defer f.Close()

	if err := bibtex.Write(f, db); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing entries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d entries successfully.\n", db.Len())
}

func pick(r *rand.Rand, pool []string) string {
	return pool[r.IntN(len(pool))]
}

func generateEntry(r *rand.Rand, index int) *bib.Entry {
	typ := pick(r, types)
	year := 1995 + r.IntN(30)

	authors := make([]string, 1+r.IntN(4))
	for i := range authors {
		authors[i] = pick(r, surnames) + ", " + pick(r, initials)
	}
	first := strings.ToLower(strings.SplitN(authors[0], ",", 2)[0])

	e := bib.NewEntryWithType(typ)
	e.SetCiteKey(fmt.Sprintf("%s%d_%d", first, year, index))
	e.SetField("author", strings.Join(authors, " and "))
	e.SetField("title", pick(r, qualifiers)+" "+pick(r, subjects))
	e.SetField("year", fmt.Sprint(year))

	switch typ {
	case "article":
		e.SetField("journal", pick(r, venues))
		e.SetField("volume", fmt.Sprint(1+r.IntN(60)))
	case "inproceedings", "incollection":
		e.SetField("booktitle", "Proceedings of "+pick(r, venues))
		e.SetField("pages", fmt.Sprintf("%d--%d", 1+r.IntN(300), 301+r.IntN(20)))
	case "book":
		e.SetField("publisher", "Springer")
	}
	if r.IntN(3) == 0 {
		e.SetField("doi", fmt.Sprintf("10.%d/%d.%d", 1000+r.IntN(9000), year, index))
	}
	return e
}
