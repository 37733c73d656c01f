package draftfile

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/x/editor"
)

// Edit opens path in $EDITOR and waits for it to exit.
func Edit(path string) error {
	cmd, err := editor.Cmd("testdesk", path)
	if err != nil {
		return fmt.Errorf("failed to prepare editor: %w", err)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

// Diff returns a unified diff of the YAML renderings of before and after,
// or "" when they are identical.
func Diff(before, after File) (string, error) {
	oldText, err := Encode(before)
	if err != nil {
		return "", err
	}
	newText, err := Encode(after)
	if err != nil {
		return "", err
	}
	return udiff.Unified("server", "draft", string(oldText), string(newText)), nil
}

// Highlight writes a diff with terminal colors. Plain output is used when
// color is off.
func Highlight(w io.Writer, diff string, color bool) error {
	if !color {
		_, err := io.WriteString(w, diff)
		return err
	}
	return quick.Highlight(w, diff, "diff", "terminal256", "monokai")
}
