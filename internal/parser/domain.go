package parser

import "vhostlog/internal/decode"

// SplitDomain splits a domain name into its labels. Empty labels are kept,
// so "a..b" yields ["a" "" "b"].
func SplitDomain(domain string) []string {
	return decode.Split(domain, ".", true)
}
