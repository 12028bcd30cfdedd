// Command generate_dataset writes a synthetic debate dataset as NDJSON,
// for exercising the derive pipeline and the dashboard locally without a
// real benchmark run.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ahrav/go-rostrum/internal/domain"
	"github.com/ahrav/go-rostrum/internal/testutils"
)

func main() {
	var (
		debates    = flag.Int("debates", 500, "Number of debates to generate")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed; fixed seeds reproduce the dataset")
		outputPath = flag.String("output", "testdata/sample_debates.ndjson", "Output file path")
	)
	flag.Parse()

	cfg := testutils.DefaultDatasetConfig(*debates, *seed)
	records := testutils.GenerateDataset(cfg)

	if err := testutils.SaveDataset(records, *outputPath); err != nil {
		log.Fatalf("Failed to save dataset: %v", err)
	}

	outcomes := make(map[domain.Winner]int)
	for _, rec := range records {
		outcomes[rec.Aggregate.Winner]++
	}

	fmt.Printf("Generated debate dataset:\n")
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Debates: %d (seed %d)\n", len(records), *seed)
	fmt.Printf("- Models: %d, topics: %d, judges: %d\n", len(cfg.Models), len(cfg.Topics), len(cfg.Judges))
	fmt.Printf("- Outcomes: pro %d / con %d / tie %d\n",
		outcomes[domain.WinnerPro], outcomes[domain.WinnerCon], outcomes[domain.WinnerTie])
	fmt.Printf("\nDerive metrics with: rostrum derive %s\n", *outputPath)
}
