// Package iojson reads command input and writes command output as JSON.
package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned by FileReader when no file is given and stdin is a
// terminal.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use -f flag or pipe JSON input")

// FileReader decodes a T from the file named by its flag, or from stdin.
type FileReader[T any] struct {
	path string
}

// Flag returns the --file flag bound to the reader.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (reads from stdin if not provided)",
		Destination: &fr.path,
	}
}

// Read decodes from the flag's file, falling back to stdin. An *os.File stdin
// attached to a terminal yields ErrNoInput.
func (fr *FileReader[T]) Read(stdin io.Reader) (T, error) {
	var input T

	reader := stdin
	if fr.path != "" {
		f, err := os.Open(fr.path)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return input, ErrNoInput
	}

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}

func marshalFailure(msg string, jsonErr error) string {
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// WriteWith writes obj as indented JSON to w. When obj cannot be marshaled
// a JSON error object is written to ew instead.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(ew, marshalFailure("error marshaling in iojson.WriteWith", err))
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
