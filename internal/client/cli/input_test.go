package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	if err == nil {
		t.Fatal("expected EOF")
	}
}

func TestGetDefaultText(t *testing.T) {
	tests := []struct {
		name, input, current, want, prompt string
	}{
		{"keeps current", "\n", "old", "old", "Title [old]\n> "},
		{"replaces", "new\n", "old", "new", "Title [old]\n> "},
		{"dash clears", "-\n", "old", "", "Title [old]\n> "},
		{"no current", "x\n", "", "x", "Title\n> "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetDefaultText(rdr(tt.input), "Title", tt.current, &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.prompt, out.String())
		})
	}
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\nb\n\n\n"), "Enter text", &out)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb" {
		t.Fatalf("got %q", got)
	}

	got, err = GetMultiline(rdr("a\r\nlast"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "a\nlast", got)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out, "Master password")
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Master password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out, "x")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, ParseTags(" a, ,b c ,"))
	assert.Nil(t, ParseTags(""))
}
