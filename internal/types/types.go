package types

import "time"

// RejectKind classifies why a line could not be routed
type RejectKind string

const (
	RejectParse               RejectKind = "parse"
	RejectNoTimestamp         RejectKind = "no_timestamp"
	RejectIncompleteTimestamp RejectKind = "incomplete_timestamp"
	RejectMalformedTimestamp  RejectKind = "malformed_timestamp"
	RejectWrite               RejectKind = "write"
	RejectUnknown             RejectKind = "unknown"
)

// Reject is one line that failed to route
type Reject struct {
	Time  time.Time  `json:"time"`
	Kind  RejectKind `json:"kind"`
	Error string     `json:"error"`
	Line  string     `json:"line"`

	Truncated bool `json:"truncated,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Input struct {
		Path    string `yaml:"path"`     // empty reads stdin
		Follow  bool   `yaml:"follow"`   // keep reading Path as it grows
		FromEnd bool   `yaml:"from_end"` // with Follow, skip existing content
	} `yaml:"input"`

	Routing struct {
		Prefix  string `yaml:"prefix"`
		Suffix  string `yaml:"suffix"` // raw token, see config.ParseSuffix
		Workers int    `yaml:"workers"`
	} `yaml:"routing"`

	Output struct {
		DirMode       uint32 `yaml:"dir_mode"`
		FileMode      uint32 `yaml:"file_mode"`
		RejectLogPath string `yaml:"reject_log_path"`
	} `yaml:"output"`

	State struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"state"`

	Dashboard struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen"`
	} `yaml:"dashboard"`
}
