// Command vdisk is the interactive command surface (CS) for the virtual
// disk core: a line-oriented REPL dispatching mkdir/cd/ls/create/open/
// close/write/read/delete/mv/search, plus the format/export/import/
// fuse-mount extensions documented in SPEC_FULL.md.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mbarda/vdisk/internal/persist"
	"github.com/mbarda/vdisk/internal/vdisk"
)

func main() {
	pc := persist.New()
	core, err := vdisk.Open(pc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	repl(core, os.Stdin, os.Stdout)
}

func repl(core *vdisk.Core, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", core.NS.CwdPath())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if dispatch(core, out, line) {
			break
		}
	}
	if err := core.Shutdown(); err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
	}
}

// dispatch runs one command line and returns true if the REPL should
// terminate (the "exit" command).
func dispatch(core *vdisk.Core, out io.Writer, line string) bool {
	fields := strings.Fields(line)
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "mkdir":
		runArity(out, args, 1, func() error { return core.Mkdir(args[0]) })
	case "cd":
		runArity(out, args, 1, func() error { return core.Cd(args[0]) })
	case "ls":
		for _, e := range core.Ls() {
			if e.IsDir {
				fmt.Fprintf(out, "[DIR] %s\n", e.Name)
			} else {
				fmt.Fprintf(out, "[FILE] %s (Size: %d)\n", e.Name, e.Size)
			}
		}
	case "create":
		runArity(out, args, 1, func() error { return core.Create(args[0]) })
	case "open":
		runArity(out, args, 1, func() error { return core.OpenFile(args[0]) })
	case "close":
		runArity(out, args, 1, func() error { return core.CloseFile(args[0]) })
	case "write":
		if len(args) < 2 {
			fmt.Fprintln(out, "Error: usage: write <name> <payload>")
			return false
		}
		name := args[0]
		rest := strings.TrimLeft(line[len(fields[0]):], " \t")
		rest = strings.TrimLeft(rest[len(name):], " \t")
		payload := unquote(strings.TrimSpace(rest))
		if err := core.Write(name, []byte(payload)); err != nil {
			fmt.Fprintf(out, "Error: %s\n", err)
		}
	case "read":
		runArity(out, args, 1, func() error {
			data, err := core.Read(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		})
	case "delete":
		runArity(out, args, 1, func() error { return core.Delete(args[0]) })
	case "mv":
		if len(args) != 2 {
			fmt.Fprintln(out, "Error: usage: mv <src> <dst>")
			return false
		}
		note, err := core.Mv(args[0], args[1])
		if err != nil {
			fmt.Fprintf(out, "Error: %s\n", err)
		} else if note != "" {
			fmt.Fprintln(out, note)
		}
	case "search":
		runArity(out, args, 1, func() error {
			results := core.Search(args[0])
			if len(results) == 0 {
				fmt.Fprintln(out, "Not found.")
				return nil
			}
			for _, r := range results {
				if r.IsDir {
					fmt.Fprintf(out, "[DIR] %s\n", r.Path)
				} else {
					fmt.Fprintf(out, "[FILE] %s\n", r.Path)
				}
			}
			return nil
		})
	case "format":
		if err := core.Format(); err != nil {
			fmt.Fprintf(out, "Error: %s\n", err)
		}
	case "export":
		runArity(out, args, 2, func() error { return core.Export(args[0], args[1]) })
	case "import":
		runArity(out, args, 2, func() error { return core.Import(args[0], args[1]) })
	case "fuse-mount":
		runArity(out, args, 1, func() error {
			_, err := core.MountFuse(args[0])
			return err
		})
	case "exit":
		return true
	default:
		fmt.Fprintf(out, "Error: %s: %s\n", errInvalidCommand, verb)
	}
	return false
}

var errInvalidCommand = fmt.Errorf("invalid command")

func runArity(out io.Writer, args []string, n int, fn func() error) {
	if len(args) != n {
		fmt.Fprintf(out, "Error: wrong number of arguments (expected %d)\n", n)
		return
	}
	if err := fn(); err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
	}
}

// unquote strips one surrounding pair of double quotes, per spec.md §6's
// write command grammar.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
