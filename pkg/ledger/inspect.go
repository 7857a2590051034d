package ledger

import (
	"os"
	"strings"
)

// Report is the outcome of an offline inspection of a ledger file pair.
// Unlike VerifyIntegrity it never mutates anything and keeps walking
// detail for operators.
type Report struct {
	Entries   int    `json:"entries"`
	HeadHash  string `json:"head_hash"`
	DigestOK  bool   `json:"digest_ok"`
	ChainOK   bool   `json:"chain_ok"`
	BreakLine int    `json:"break_line,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// OK reports whether both tamper checks passed.
func (r *Report) OK() bool { return r.DigestOK && r.ChainOK }

// Inspect walks a ledger file and its digest side file without touching
// system state. Used by offline tooling; the service itself goes through
// VerifyIntegrity so failures freeze the system.
func Inspect(path, digestPath string) (*Report, error) {
	r := &Report{HeadHash: GenesisHash}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if _, derr := os.Stat(digestPath); derr == nil {
				r.Reason = "digest side file present but chain file missing"
				return r, nil
			}
			r.DigestOK = true
			r.ChainOK = true
			return r, nil
		}
		return nil, err
	}

	expected, err := os.ReadFile(digestPath)
	switch {
	case err != nil:
		r.Reason = "digest side file unreadable"
	case fileDigest(raw) != strings.TrimSpace(string(expected)):
		r.Reason = "whole-file digest mismatch"
	default:
		r.DigestOK = true
	}

	head := GenesisHash
	r.ChainOK = true
	for i, line := range chainLines(raw) {
		fields := strings.Split(line, "|")
		switch {
		case len(fields) != fieldCount:
			r.ChainOK = false
			r.Reason = "malformed entry"
		case fields[4] != head:
			r.ChainOK = false
			r.Reason = "previous-hash link broken"
		case entryHash(fields[0], fields[1], fields[2], fields[3], fields[4]) != fields[5]:
			r.ChainOK = false
			r.Reason = "entry hash mismatch"
		}
		if !r.ChainOK {
			r.BreakLine = i + 1
			return r, nil
		}
		head = fields[5]
		r.Entries++
	}
	r.HeadHash = head
	return r, nil
}
