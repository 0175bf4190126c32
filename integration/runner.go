// Package integration runs whole .tac scripts end to end and checks
// their output against expectations embedded in the script itself, as
// "# expect: <line>" / "# expect-error: <substring>" trailing
// comments.
package integration

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"tacvm/vm"
)

const (
	expectPrefix      = "# expect:"
	expectErrorPrefix = "# expect-error:"
)

// Fixture is one golden script loaded from testdata.
type Fixture struct {
	Name                   string
	Path                   string
	Source                 string
	ExpectedOutputLines    []string
	ExpectedErrorSubstring string
}

// LoadFixtures reads every *.tac file in dir and parses its trailing
// expectation comments.
func LoadFixtures(dir string) ([]Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.tac"))
	if err != nil {
		return nil, errors.Wrap(err, "glob testdata")
	}

	fixtures := make([]Fixture, 0, len(paths))
	for _, path := range paths {
		f, err := loadFixture(path)
		if err != nil {
			return nil, errors.Wrapf(err, "load fixture %s", path)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

func loadFixture(path string) (Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}

	f := Fixture{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:   path,
		Source: string(content),
	}

	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, expectErrorPrefix):
			f.ExpectedErrorSubstring = strings.TrimSpace(strings.TrimPrefix(line, expectErrorPrefix))
		case strings.HasPrefix(line, expectPrefix):
			f.ExpectedOutputLines = append(f.ExpectedOutputLines, strings.TrimSpace(strings.TrimPrefix(line, expectPrefix)))
		}
	}
	if err := sc.Err(); err != nil {
		return Fixture{}, err
	}

	return f, nil
}

// Result is the outcome of running one Fixture.
type Result struct {
	Fixture Fixture
	Stdout  string
	Stderr  string
	Err     error
}

// Run interprets the fixture's source against a fresh VM.
func (f Fixture) Run() Result {
	var stdout, stderr bytes.Buffer
	v := vm.New(&stdout, &stderr)
	err := v.Interpret(f.Source)
	return Result{Fixture: f, Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}
