// Package config resolves the flat set of values gathered from command
// line flags (and an optional config file) into a validated Config.
package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for configuration problems; wrap one of these with
// fmt.Errorf("%w: ...") for detail while keeping it matchable with
// errors.Is.
var (
	ErrMissingFile        = errors.New("left and right input files are required")
	ErrDuplicateKeyField  = errors.New("key fields must not contain duplicates")
	ErrKeyLengthMismatch  = errors.New("left key and right key must have the same number of fields")
	ErrInvalidKeyField    = errors.New("key fields use 1-based numbering and must be positive integers")
	ErrMultiByteCharacter = errors.New("delimiter and terminator must be exactly one byte")
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileInvalid  = errors.New("invalid config file")
)

// Flags is the raw, unresolved set of values gathered from the command
// line (after the file-config/CLI precedence has already been
// applied), mirroring the shape of the original CLI's Args struct
// before validation.
type Flags struct {
	LeftPath  string
	RightPath string
	Output    string

	ShowLeft    bool
	ShowRight   bool
	ShowBoth    bool
	ShowAnySet  bool // true if -l/-r/-b was explicitly given anywhere
	Header      bool

	Key      []string
	LeftKey  []string
	RightKey []string

	Delimiter         string
	InDelimiter       string
	OutDelimiter      string
	InLeftDelimiter   string
	InRightDelimiter  string
	Terminator        string
	InTerminator      string
	OutTerminator     string
	InLeftTerminator  string
	InRightTerminator string
}

// Config is the fully resolved, validated configuration the rest of
// the program runs from.
type Config struct {
	LeftPath  string
	RightPath string
	Output    string // "" means write to stdout

	ShowLeft  bool
	ShowRight bool
	ShowBoth  bool
	Header    bool

	LeftKey  []int // 0-based
	RightKey []int // 0-based

	InLeftDelimiter   byte
	InRightDelimiter  byte
	OutDelimiter      byte
	InLeftTerminator  byte
	InRightTerminator byte
	OutTerminator     byte
}

// Resolve validates f and fills in the cascading defaults described in
// spec.md §6 (delimiter → in-delimiter → in-{left,right}-delimiter,
// and the terminator/key equivalents), returning a ready-to-use
// Config.
func Resolve(f Flags) (*Config, error) {
	if f.LeftPath == "" || f.RightPath == "" {
		return nil, ErrMissingFile
	}

	showBoth := !f.ShowAnySet || f.ShowBoth

	key, err := resolveKey(f.Key, "")
	if err != nil {
		return nil, err
	}
	if key == nil {
		key = []int{0}
	}

	leftKey, err := resolveKeyOrDefault(f.LeftKey, "left ", key)
	if err != nil {
		return nil, err
	}
	rightKey, err := resolveKeyOrDefault(f.RightKey, "right ", key)
	if err != nil {
		return nil, err
	}
	if len(leftKey) != len(rightKey) {
		return nil, ErrKeyLengthMismatch
	}

	delimiter, err := resolveByteOrDefault(f.Delimiter, ',')
	if err != nil {
		return nil, err
	}
	inDelimiter, err := resolveByteOrDefault(f.InDelimiter, delimiter)
	if err != nil {
		return nil, err
	}
	outDelimiter, err := resolveByteOrDefault(f.OutDelimiter, delimiter)
	if err != nil {
		return nil, err
	}
	inLeftDelimiter, err := resolveByteOrDefault(f.InLeftDelimiter, inDelimiter)
	if err != nil {
		return nil, err
	}
	inRightDelimiter, err := resolveByteOrDefault(f.InRightDelimiter, inDelimiter)
	if err != nil {
		return nil, err
	}

	terminator, err := resolveByteOrDefault(f.Terminator, '\n')
	if err != nil {
		return nil, err
	}
	inTerminator, err := resolveByteOrDefault(f.InTerminator, terminator)
	if err != nil {
		return nil, err
	}
	outTerminator, err := resolveByteOrDefault(f.OutTerminator, terminator)
	if err != nil {
		return nil, err
	}
	inLeftTerminator, err := resolveByteOrDefault(f.InLeftTerminator, inTerminator)
	if err != nil {
		return nil, err
	}
	inRightTerminator, err := resolveByteOrDefault(f.InRightTerminator, inTerminator)
	if err != nil {
		return nil, err
	}

	return &Config{
		LeftPath:  f.LeftPath,
		RightPath: f.RightPath,
		Output:    f.Output,

		ShowLeft:  f.ShowLeft,
		ShowRight: f.ShowRight,
		ShowBoth:  showBoth,
		Header:    f.Header,

		LeftKey:  leftKey,
		RightKey: rightKey,

		InLeftDelimiter:   inLeftDelimiter,
		InRightDelimiter:  inRightDelimiter,
		OutDelimiter:      outDelimiter,
		InLeftTerminator:  inLeftTerminator,
		InRightTerminator: inRightTerminator,
		OutTerminator:     outTerminator,
	}, nil
}

// resolveKey parses 1-based, comma-split key field strings into
// 0-based indices, rejecting duplicates. A nil fields returns a nil
// key (caller substitutes its own default).
func resolveKey(fields []string, which string) ([]int, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]int, len(fields))
	seen := make(map[int]bool, len(fields))
	for i, s := range fields {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("could not parse the %skey field at position %d: %w", which, i+1, ErrInvalidKeyField)
		}
		idx := n - 1
		if seen[idx] {
			return nil, fmt.Errorf("%skey field %d repeated: %w", which, n, ErrDuplicateKeyField)
		}
		seen[idx] = true
		out[i] = idx
	}
	return out, nil
}

func resolveKeyOrDefault(fields []string, which string, def []int) ([]int, error) {
	key, err := resolveKey(fields, which)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return def, nil
	}
	return key, nil
}

func resolveByteOrDefault(s string, def byte) (byte, error) {
	if s == "" {
		return def, nil
	}
	b := []byte(s)
	if len(b) != 1 {
		return 0, ErrMultiByteCharacter
	}
	return b[0], nil
}
