// Ringdetect CLI - runs the fraud-ring detection pipeline over a JSON
// transaction batch read from a file or stdin, and prints the result.
//
// Usage:
//   ringdetect -in batch.json
//   cat batch.json | ringdetect
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/opensource-finance/ringdetect/internal/domain"
	"github.com/opensource-finance/ringdetect/internal/pipeline"
	"github.com/opensource-finance/ringdetect/internal/rules"
)

func main() {
	inPath := flag.String("in", "", "path to a JSON transaction batch file (default: stdin)")
	pretty := flag.Bool("pretty", true, "pretty-print the JSON result")
	flag.Parse()

	batch, err := readBatch(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringdetect: %v\n", err)
		os.Exit(1)
	}

	if len(batch.Transactions) == 0 {
		fmt.Fprintln(os.Stderr, "ringdetect: batch contains no transactions")
		os.Exit(1)
	}

	engine, err := rules.NewEngine(rules.DefaultThresholds())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringdetect: failed to build rule engine: %v\n", err)
		os.Exit(1)
	}

	p := pipeline.New(engine)

	start := time.Now()
	result := p.Analyze(batch.Transactions, batch.Mode, 0)
	result.Summary.ProcessingTimeSeconds = time.Since(start).Seconds()

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringdetect: failed to marshal result: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))

	fmt.Fprintf(os.Stderr, "\naccounts analyzed: %d  suspicious: %d  rings detected: %d  elapsed: %s\n",
		result.Summary.TotalAccountsAnalyzed,
		result.Summary.SuspiciousAccountsFlagged,
		result.Summary.FraudRingsDetected,
		time.Since(start),
	)
}

func readBatch(path string) (domain.TransactionBatch, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return domain.TransactionBatch{}, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var batch domain.TransactionBatch
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return domain.TransactionBatch{}, fmt.Errorf("decoding batch: %w", err)
	}
	return batch, nil
}
