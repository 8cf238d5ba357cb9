// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"strconv"
)

// FakeProbe is a shell script standing in for netstat. It prints the
// contents of an output file and exits with the code stored next to it,
// so tests can change what the daemon sees while it runs.
type FakeProbe struct {
	Dir string
}

// NewFakeProbe creates the script under dir with empty output and exit 0.
func NewFakeProbe(dir string) (*FakeProbe, error) {
	f := &FakeProbe{Dir: dir}

	script := "#!/bin/sh\ncat \"" + f.outputPath() + "\"\nexit \"$(cat \"" + f.statusPath() + "\")\"\n"
	if err := os.WriteFile(f.scriptPath(), []byte(script), 0755); err != nil {
		return nil, err
	}
	if err := f.SetOutput(""); err != nil {
		return nil, err
	}
	if err := f.SetExitCode(0); err != nil {
		return nil, err
	}
	return f, nil
}

// Command returns the probe_command argument list.
func (f *FakeProbe) Command() []string {
	return []string{"/bin/sh", f.scriptPath()}
}

// SetOutput replaces what the next probe prints.
func (f *FakeProbe) SetOutput(output string) error {
	return writeAtomic(f.outputPath(), output)
}

// SetExitCode replaces the next probe's exit status.
func (f *FakeProbe) SetExitCode(code int) error {
	return writeAtomic(f.statusPath(), strconv.Itoa(code))
}

func (f *FakeProbe) scriptPath() string { return filepath.Join(f.Dir, "fake-netstat") }
func (f *FakeProbe) outputPath() string { return filepath.Join(f.Dir, "netstat.out") }
func (f *FakeProbe) statusPath() string { return filepath.Join(f.Dir, "netstat.status") }

// writeAtomic keeps a concurrently running probe from reading a half-written file.
func writeAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
