// janledger is the offline companion tool: it verifies a ledger file
// pair without the service, computes identity tokens for tooling that
// must agree on tokens without sharing raw identities, and tails recent
// entries.
//
// Usage:
//
//	janledger verify -ledger data/ledger.log [-digest data/ledger.log.sha256]
//	janledger token <raw-identifier>
//	janledger tail -ledger data/ledger.log [-n 20]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rupesh-3/jandhan/pkg/identity"
	"github.com/rupesh-3/jandhan/pkg/ledger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "verify":
		err = runVerify(os.Args[2:])
	case "token":
		err = runToken(os.Args[2:])
	case "tail":
		err = runTail(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "janledger:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: janledger <verify|token|tail> [flags]")
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	ledgerPath := fs.String("ledger", "data/ledger.log", "ledger chain file")
	digestPath := fs.String("digest", "", "digest side file (default <ledger>.sha256)")
	asJSON := fs.Bool("json", false, "emit the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *digestPath == "" {
		*digestPath = *ledgerPath + ".sha256"
	}

	report, err := ledger.Inspect(*ledgerPath, *digestPath)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Printf("entries:  %d\n", report.Entries)
		fmt.Printf("digest:   %s\n", okString(report.DigestOK))
		fmt.Printf("chain:    %s\n", okString(report.ChainOK))
		if !report.OK() {
			fmt.Printf("reason:   %s\n", report.Reason)
			if report.BreakLine > 0 {
				fmt.Printf("breaks:   line %d\n", report.BreakLine)
			}
		} else {
			fmt.Printf("head:     %s\n", identity.Truncate(report.HeadHash, 16))
		}
	}

	if !report.OK() {
		os.Exit(1)
	}
	return nil
}

func okString(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAILED"
}

func runToken(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: janledger token <raw-identifier>")
	}
	fmt.Println(identity.Token(args[0]))
	return nil
}

func runTail(args []string) error {
	fs := flag.NewFlagSet("tail", flag.ExitOnError)
	ledgerPath := fs.String("ledger", "data/ledger.log", "ledger chain file")
	digestPath := fs.String("digest", "", "digest side file (default <ledger>.sha256)")
	n := fs.Int("n", 20, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *digestPath == "" {
		*digestPath = *ledgerPath + ".sha256"
	}

	led := ledger.New(*ledgerPath, *digestPath, nil)
	entries, err := led.RecentEntries(*n)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %-14s %-16s %10d  %s\n", e.Timestamp, e.Token, e.Scheme, e.Amount, e.Hash)
	}
	return nil
}
