// Package parser extracts the routing fields, domain labels and the
// date & time signature, from virtual host access log lines.
package parser
