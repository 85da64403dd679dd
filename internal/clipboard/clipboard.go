// Package clipboard shells out to the platform copy tool so an answer
// can be pasted into a report or a message without leaving the client.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

var ErrToolNotFound = errors.New("clipboard tool not found")

type Command struct {
	Path string
	Args []string
}

// candidates lists copy tools per GOOS in preference order.
var candidates = map[string][]Command{
	"darwin": {
		{Path: "pbcopy"},
	},
	"linux": {
		{Path: "wl-copy"},
		{Path: "xclip", Args: []string{"-selection", "clipboard"}},
		{Path: "xsel", Args: []string{"--clipboard", "--input"}},
	},
}

func SelectCommand(goos string, lookPath func(string) (string, error)) (Command, error) {
	for _, c := range candidates[goos] {
		resolved, err := lookPath(c.Path)
		if err != nil {
			continue
		}
		return Command{Path: resolved, Args: c.Args}, nil
	}
	return Command{}, ErrToolNotFound
}

func Copy(ctx context.Context, text string) error {
	cmdDef, err := SelectCommand(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, cmdDef.Path, cmdDef.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("clipboard stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start clipboard command: %w", err)
	}
	if _, err := stdin.Write([]byte(text)); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write clipboard data: %w", err)
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("clipboard command failed: %w", err)
	}
	return nil
}
