// Package route decides where a virtual host access log entry belongs and
// stores it there.
package route

import (
	"fmt"
	"strings"

	"vhostlog/internal/decode"
	"vhostlog/internal/parser"
)

// DirEnsurer creates a directory if it does not exist yet
type DirEnsurer interface {
	EnsureDirectory(path string) error
}

// Appender appends data to a file in a single write
type Appender interface {
	AppendBytes(path string, data []byte) error
}

// WriteError reports an entry that was routed but could not be stored
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to append to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Destination describes where a routed entry was written
type Destination struct {
	Domain string
	Dir    string
	File   string
	Month  string // YYYY-MM
	Bytes  int
}

// Router routes entries below Prefix. Suffix is appended to the month
// directory name and is either empty or starts with '.'.
type Router struct {
	Prefix string
	Suffix string
	Dirs   DirEnsurer
	Files  Appender
}

// NewRouter creates a router storing entries through dirs and files
func NewRouter(prefix, suffix string, dirs DirEnsurer, files Appender) *Router {
	return &Router{
		Prefix: prefix,
		Suffix: suffix,
		Dirs:   dirs,
		Files:  files,
	}
}

// Fields locates the domain field of a line. It returns the domain, the
// offset where the domain starts and the offset where the text following
// it starts. Only spaces count as separators.
func Fields(line string) (domain string, domainStart, restStart int) {
	domainStart = skipSpaces(line, 0)
	domainEnd := domainStart
	for domainEnd < len(line) && line[domainEnd] != ' ' {
		domainEnd++
	}
	restStart = skipSpaces(line, domainEnd)
	return line[domainStart:domainEnd], domainStart, restStart
}

func skipSpaces(s string, from int) int {
	for from < len(s) && s[from] == ' ' {
		from++
	}
	return from
}

// Route stores one raw access log line in its domain log. Lines without a
// usable domain are dropped and return nil, nil. Timestamp errors and
// append failures are returned; directory creation errors are not, the
// append reports the problem if the directory is really missing.
func (r *Router) Route(line string) (*Destination, error) {
	domain, domainStart, restStart := Fields(line)
	if domain == "" || restStart >= len(line) {
		return nil, nil
	}
	// not a hostname; would also let the path escape Prefix
	if strings.ContainsRune(domain, '/') {
		return nil, nil
	}

	labels := parser.SplitDomain(domain)
	if len(labels) < 2 {
		return nil, nil
	}

	ts, err := parser.ExtractTimestamp(line[restStart:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", domain, err)
	}

	month := decode.PadLeadingZeros(decode.EncodeDecimal(ts.Year), 4) + "-" +
		decode.PadLeadingZeros(decode.EncodeDecimal(int64(ts.Month)), 2)

	// ${PREFIX}/${SECOND_LEVEL}.${TOP_LEVEL}/logs/${YYYY}-${MM}${SUFFIX}/${DOMAIN}
	dir := r.Prefix + "/" + labels[len(labels)-2] + "." + labels[len(labels)-1] +
		"/logs/" + month + r.Suffix
	file := dir + "/" + domain

	_ = r.Dirs.EnsureDirectory(dir)

	entry := make([]byte, 0, len(line)-domainStart+1)
	entry = append(entry, line[domainStart:]...)
	entry = append(entry, '\n')

	if err := r.Files.AppendBytes(file, entry); err != nil {
		return nil, &WriteError{Path: file, Err: err}
	}

	return &Destination{
		Domain: domain,
		Dir:    dir,
		File:   file,
		Month:  month,
		Bytes:  len(entry),
	}, nil
}
