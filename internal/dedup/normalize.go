// Package dedup merges adapter output into the canonical job registry.
// It owns normalization, the canonical key, and re-posting detection.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"strings"
)

// legalSuffixes are company-name tokens stripped during normalization so
// "Acme Inc." and "ACME" collapse to the same canonical company.
var legalSuffixes = map[string]struct{}{
	"inc":         {},
	"llc":         {},
	"ltd":         {},
	"limited":     {},
	"corp":        {},
	"corporation": {},
	"co":          {},
	"company":     {},
	"plc":         {},
	"gmbh":        {},
	"sas":         {},
	"sarl":        {},
	"bv":          {},
	"ag":          {},
	"srl":         {},
}

// normalize case-folds, trims token-edge punctuation, and collapses
// whitespace.
func normalize(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()[]&\"'")
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// NormalizeTitle returns the canonical form of a job title.
func NormalizeTitle(s string) string { return normalize(s) }

// NormalizeLocation returns the canonical form of a location string.
func NormalizeLocation(s string) string { return normalize(s) }

// NormalizeCompany normalizes like NormalizeTitle and additionally strips
// trailing legal suffixes. At least one token always survives.
func NormalizeCompany(s string) string {
	tokens := strings.Fields(normalize(s))
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if _, ok := legalSuffixes[last]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// DescriptionHash computes the content hash over the normalized
// description. Whitespace and case differences hash identically.
func DescriptionHash(description string) string {
	sum := sha256.Sum256([]byte(normalize(description)))
	return hex.EncodeToString(sum[:])
}

// Key identifies one real-world job across sources.
type Key struct {
	Company  string
	Title    string
	Location string
	Hash     string
}

// String renders the key for logging and lock sharding.
func (k Key) String() string {
	return k.Company + "|" + k.Title + "|" + k.Location + "|" + k.Hash
}

// Shard maps the key onto one of n lock shards.
func (k Key) Shard(n int) int {
	h := fnv.New32a()
	h.Write([]byte(k.String()))
	return int(h.Sum32() % uint32(n))
}
