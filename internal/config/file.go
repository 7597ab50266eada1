package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// File is the shape of an optional --config document: a HUJSON
// (JSON-with-comments) file supplying defaults for any flag the
// caller didn't pass explicitly. CLI flags always take precedence
// over a loaded File; a File always takes precedence over the
// built-in defaults applied by Resolve.
type File struct {
	ShowLeft  *bool `json:"show_left,omitempty"`
	ShowRight *bool `json:"show_right,omitempty"`
	ShowBoth  *bool `json:"show_both,omitempty"`
	Header    *bool `json:"header,omitempty"`

	Key      []string `json:"key,omitempty"`
	LeftKey  []string `json:"left_key,omitempty"`
	RightKey []string `json:"right_key,omitempty"`

	Delimiter         string `json:"delimiter,omitempty"`
	InDelimiter       string `json:"in_delimiter,omitempty"`
	OutDelimiter      string `json:"out_delimiter,omitempty"`
	InLeftDelimiter   string `json:"in_left_delimiter,omitempty"`
	InRightDelimiter  string `json:"in_right_delimiter,omitempty"`
	Terminator        string `json:"terminator,omitempty"`
	InTerminator      string `json:"in_terminator,omitempty"`
	OutTerminator     string `json:"out_terminator,omitempty"`
	InLeftTerminator  string `json:"in_left_terminator,omitempty"`
	InRightTerminator string `json:"in_right_terminator,omitempty"`
}

// LoadFile reads and standardizes a HUJSON config file at path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return File{}, fmt.Errorf("%w: %s: %v", ErrConfigFileInvalid, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return File{}, fmt.Errorf("%w: %s: %v", ErrConfigFileInvalid, path, err)
	}

	var fc File
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return File{}, fmt.Errorf("%w: %s: %v", ErrConfigFileInvalid, path, err)
	}
	return fc, nil
}

// ApplyFile fills any field of f that wasn't explicitly set on the
// command line (tracked via changed, keyed by flag name) with the
// corresponding value from fc.
func ApplyFile(f *Flags, fc File, changed map[string]bool) {
	if fc.ShowLeft != nil && !changed["show-left"] {
		f.ShowLeft = *fc.ShowLeft
		f.ShowAnySet = true
	}
	if fc.ShowRight != nil && !changed["show-right"] {
		f.ShowRight = *fc.ShowRight
		f.ShowAnySet = true
	}
	if fc.ShowBoth != nil && !changed["show-both"] {
		f.ShowBoth = *fc.ShowBoth
		f.ShowAnySet = true
	}
	if fc.Header != nil && !changed["header"] {
		f.Header = *fc.Header
	}

	if len(fc.Key) > 0 && !changed["key"] {
		f.Key = fc.Key
	}
	if len(fc.LeftKey) > 0 && !changed["left-key"] {
		f.LeftKey = fc.LeftKey
	}
	if len(fc.RightKey) > 0 && !changed["right-key"] {
		f.RightKey = fc.RightKey
	}

	applyString(&f.Delimiter, fc.Delimiter, changed["delimiter"])
	applyString(&f.InDelimiter, fc.InDelimiter, changed["in-delimiter"])
	applyString(&f.OutDelimiter, fc.OutDelimiter, changed["out-delimiter"])
	applyString(&f.InLeftDelimiter, fc.InLeftDelimiter, changed["in-left-delimiter"])
	applyString(&f.InRightDelimiter, fc.InRightDelimiter, changed["in-right-delimiter"])
	applyString(&f.Terminator, fc.Terminator, changed["terminator"])
	applyString(&f.InTerminator, fc.InTerminator, changed["in-terminator"])
	applyString(&f.OutTerminator, fc.OutTerminator, changed["out-terminator"])
	applyString(&f.InLeftTerminator, fc.InLeftTerminator, changed["in-left-terminator"])
	applyString(&f.InRightTerminator, fc.InRightTerminator, changed["in-right-terminator"])
}

func applyString(dst *string, fileValue string, changed bool) {
	if fileValue != "" && !changed {
		*dst = fileValue
	}
}
