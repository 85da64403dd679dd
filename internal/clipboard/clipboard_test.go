package clipboard

import (
	"errors"
	"testing"
)

func lookPathFor(available ...string) func(string) (string, error) {
	set := map[string]bool{}
	for _, a := range available {
		set[a] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
}

func TestSelectCommandDarwin(t *testing.T) {
	cmd, err := SelectCommand("darwin", lookPathFor("pbcopy"))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if cmd.Path != "/usr/bin/pbcopy" || len(cmd.Args) != 0 {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestSelectCommandLinuxPreference(t *testing.T) {
	cmd, err := SelectCommand("linux", lookPathFor("xclip", "wl-copy"))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if cmd.Path != "/usr/bin/wl-copy" {
		t.Fatalf("expected wl-copy preferred, got %+v", cmd)
	}

	cmd, err = SelectCommand("linux", lookPathFor("xsel"))
	if err != nil {
		t.Fatalf("select fallback: %v", err)
	}
	if cmd.Path != "/usr/bin/xsel" || len(cmd.Args) != 2 {
		t.Fatalf("unexpected xsel command: %+v", cmd)
	}
}

func TestSelectCommandNoTool(t *testing.T) {
	if _, err := SelectCommand("linux", lookPathFor()); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if _, err := SelectCommand("windows", lookPathFor("pbcopy")); !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound for unsupported platform, got %v", err)
	}
}
