package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	f := Flags{LeftPath: "left.csv", RightPath: "right.csv"}
	cfg, err := Resolve(f)
	require.NoError(t, err)

	assert.True(t, cfg.ShowBoth)
	assert.False(t, cfg.ShowLeft)
	assert.False(t, cfg.ShowRight)
	assert.Equal(t, []int{0}, cfg.LeftKey)
	assert.Equal(t, []int{0}, cfg.RightKey)
	assert.Equal(t, byte(','), cfg.OutDelimiter)
	assert.Equal(t, byte(','), cfg.InLeftDelimiter)
	assert.Equal(t, byte(','), cfg.InRightDelimiter)
	assert.Equal(t, byte('\n'), cfg.OutTerminator)
	assert.Equal(t, byte('\n'), cfg.InLeftTerminator)
	assert.Equal(t, byte('\n'), cfg.InRightTerminator)
}

func TestResolveMissingFile(t *testing.T) {
	_, err := Resolve(Flags{LeftPath: "left.csv"})
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestResolveShowAnySet(t *testing.T) {
	f := Flags{LeftPath: "l", RightPath: "r", ShowLeft: true, ShowAnySet: true}
	cfg, err := Resolve(f)
	require.NoError(t, err)

	assert.False(t, cfg.ShowBoth, "ShowBoth should stay false when only -l was given")
	assert.True(t, cfg.ShowLeft)
}

func TestResolveKeyDuplicates(t *testing.T) {
	f := Flags{LeftPath: "l", RightPath: "r", Key: []string{"1", "1"}}
	_, err := Resolve(f)
	assert.ErrorIs(t, err, ErrDuplicateKeyField)
}

func TestResolveKeyInvalid(t *testing.T) {
	for _, s := range []string{"0", "-1", "abc", ""} {
		f := Flags{LeftPath: "l", RightPath: "r", Key: []string{s}}
		_, err := Resolve(f)
		assert.ErrorIsf(t, err, ErrInvalidKeyField, "key %q", s)
	}
}

func TestResolveKeyLengthMismatch(t *testing.T) {
	f := Flags{LeftPath: "l", RightPath: "r", LeftKey: []string{"1", "2"}, RightKey: []string{"1"}}
	_, err := Resolve(f)
	assert.ErrorIs(t, err, ErrKeyLengthMismatch)
}

func TestResolveKeyPerSideOverride(t *testing.T) {
	f := Flags{LeftPath: "l", RightPath: "r", LeftKey: []string{"2"}, RightKey: []string{"3"}}
	cfg, err := Resolve(f)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, cfg.LeftKey)
	assert.Equal(t, []int{2}, cfg.RightKey)
}

func TestResolveDelimiterCascade(t *testing.T) {
	f := Flags{
		LeftPath: "l", RightPath: "r",
		Delimiter:        ";",
		InRightDelimiter: "|",
	}
	cfg, err := Resolve(f)
	require.NoError(t, err)

	assert.Equal(t, byte(';'), cfg.OutDelimiter)
	assert.Equal(t, byte(';'), cfg.InLeftDelimiter)
	assert.Equal(t, byte('|'), cfg.InRightDelimiter)
}

func TestResolveMultiByteDelimiter(t *testing.T) {
	f := Flags{LeftPath: "l", RightPath: "r", Delimiter: "::"}
	_, err := Resolve(f)
	assert.ErrorIs(t, err, ErrMultiByteCharacter)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.hujson"))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hujson")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrConfigFileInvalid)
}

func TestLoadFileAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rjoin.hujson")
	doc := `{
		// comments are fine, this is HUJSON
		"show_left": true,
		"delimiter": ";",
		"key": ["2"],
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	fc, err := LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, fc.ShowLeft)
	assert.True(t, *fc.ShowLeft)
	assert.Equal(t, ";", fc.Delimiter)
	assert.Equal(t, []string{"2"}, fc.Key)

	f := Flags{LeftPath: "l", RightPath: "r"}
	ApplyFile(&f, fc, map[string]bool{})
	assert.True(t, f.ShowLeft)
	assert.True(t, f.ShowAnySet)
	assert.Equal(t, ";", f.Delimiter)
	assert.Equal(t, []string{"2"}, f.Key)
}

func TestApplyFileCLIWins(t *testing.T) {
	trueVal := true
	fc := File{ShowLeft: &trueVal, Delimiter: ";"}
	f := Flags{LeftPath: "l", RightPath: "r", Delimiter: ","}
	ApplyFile(&f, fc, map[string]bool{"show-left": true, "delimiter": true})

	assert.False(t, f.ShowLeft, "an explicitly-set CLI flag should win over the file")
	assert.Equal(t, ",", f.Delimiter, "an explicitly-set CLI flag should win over the file")
}
