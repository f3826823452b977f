// Package register adds hslindex to an MCP client configuration so the client starts
// "hslindex serve --mcp" on demand.
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// ServeArgs are the arguments every registered entry starts the server with.
var ServeArgs = []string{"serve", "--mcp"}

// Scope selects which client configuration file receives the entry.
type Scope string

const (
	ScopeProject Scope = "project" // <directory>/.mcp.json
	ScopeUser    Scope = "user"    // ~/.claude.json
)

// Request is a parsed register command line.
type Request struct {
	Scope     Scope
	Directory string   // project scope only; defaults to the working directory
	ExtraArgs []string // appended to ServeArgs
}

type serverEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Run registers serverName according to args, the words after "register".
func Run(serverName string, args []string) error {
	req, err := ParseArgs(args)
	if err != nil {
		return fmt.Errorf("%w\n%s", err, usage())
	}

	binary, err := executablePath()
	if err != nil {
		return err
	}
	file, err := req.ConfigFile()
	if err != nil {
		return err
	}

	entry := newEntry(binary, append(slices.Clone(ServeArgs), req.ExtraArgs...))
	if err := mergeEntry(file, serverName, entry); err != nil {
		return fmt.Errorf("updating %s: %w", file, err)
	}

	fmt.Printf("hslindex registered as %q in %s\n", serverName, file)
	return nil
}

// ParseArgs reads "SCOPE [DIRECTORY] [-- SERVE-ARGS...]".
func ParseArgs(args []string) (Request, error) {
	var req Request
	if len(args) == 0 {
		return req, errors.New("scope required")
	}
	req.Scope = Scope(args[0])
	if req.Scope != ScopeProject && req.Scope != ScopeUser {
		return req, fmt.Errorf("scope %q is neither %q nor %q", args[0], ScopeProject, ScopeUser)
	}

	positional := args[1:]
	if sep := slices.Index(positional, "--"); sep >= 0 {
		req.ExtraArgs = positional[sep+1:]
		positional = positional[:sep]
	}

	switch {
	case len(positional) > 1:
		return req, fmt.Errorf("unexpected arguments %v", positional[1:])
	case len(positional) == 1 && req.Scope == ScopeUser:
		return req, errors.New("user scope takes no directory")
	case len(positional) == 1:
		req.Directory = positional[0]
	case req.Scope == ScopeProject:
		req.Directory = "."
	}
	return req, nil
}

// ConfigFile returns the client configuration file the request targets.
func (r Request) ConfigFile() (string, error) {
	if r.Scope == ScopeProject {
		dir, err := filepath.Abs(r.Directory)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", r.Directory, err)
		}
		return filepath.Join(dir, ".mcp.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".claude.json"), nil
}

func usage() string {
	bin := filepath.Base(os.Args[0])
	lines := []string{
		"Usage:",
		"  " + bin + " register project [directory] [-- serve flags]   writes <directory>/.mcp.json",
		"  " + bin + " register user [-- serve flags]                  writes ~/.claude.json",
		"Example:",
		"  " + bin + " register user -- --config /etc/hslindex.toml",
	}
	return strings.Join(lines, "\n")
}

// DeriveServerName names the entry after the binary, without an .exe or -mcp suffix.
func DeriveServerName(binaryPath string) string {
	name := strings.TrimSuffix(filepath.Base(binaryPath), ".exe")
	return strings.TrimSuffix(name, "-mcp")
}

func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating hslindex binary: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", exe, err)
	}
	return resolved, nil
}

// newEntry launches binary directly, or through cmd.exe on windows.
func newEntry(binary string, args []string) serverEntry {
	if runtime.GOOS == "windows" {
		return serverEntry{Command: "cmd", Args: append([]string{"/C", binary}, args...)}
	}
	return serverEntry{Command: binary, Args: args}
}

// mergeEntry sets mcpServers[name] in file, leaving every other key untouched.
// The file is replaced atomically.
func mergeEntry(file, name string, entry serverEntry) error {
	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing: %w", err)
		}
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := doc["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return fmt.Errorf("mcpServers is not an object: %w", err)
		}
	}
	if servers[name], err = json.Marshal(entry); err != nil {
		return err
	}
	if doc["mcpServers"], err = json.Marshal(servers); err != nil {
		return err
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return replaceFile(file, append(out, '\n'))
}

func replaceFile(file string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), ".hslindex-register-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), file)
}
