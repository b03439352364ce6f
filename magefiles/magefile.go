//go:build mage

// Package main provides build targets for datalus using Mage.
//
// Usage:
//
//	mage build            Compile the datalus binary to bin/
//	mage test             Run all tests (unit + integration)
//	mage testUnit         Run only unit tests (exclude integration)
//	mage testIntegration  Run only the CLI integration tests
//	mage lint             Run golangci-lint
//	mage clean            Remove build artifacts
//	mage install          Install datalus to GOPATH/bin
//	mage stats            Print Go line counts per package
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "datalus"
	binaryDir  = "bin"
	cmdDir     = "./cmd/datalus"
	testsDir   = "./tests/..."
)

// Build compiles the datalus binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests (unit and integration).
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// TestUnit runs only unit tests, excluding the tests/ directory.
func TestUnit() error {
	pkgs, err := unitPackages()
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		fmt.Println("No unit test packages found.")
		return nil
	}
	return sh.RunV(binGo, append([]string{"test"}, pkgs...)...)
}

// TestIntegration runs the CLI integration tests. They build the binary
// themselves.
func TestIntegration() error {
	return sh.RunV(binGo, "test", "-count=1", testsDir)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Stats prints production and test line counts for each package directory.
func Stats() error {
	type counts struct{ prod, test int }
	perDir := map[string]*counts{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch {
			case path == "vendor", path == ".git", path == binaryDir, path == "magefiles":
				return filepath.SkipDir
			case strings.HasPrefix(info.Name(), "_"):
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c := perDir[dir]
		if c == nil {
			c = &counts{}
			perDir[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(perDir))
	for d := range perDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var prod, test int
	for _, d := range dirs {
		c := perDir[d]
		fmt.Printf("%-24s %6d %6d\n", d, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-24s %6d %6d\n", "total", prod, test)
	return nil
}

func unitPackages() ([]string, error) {
	out, err := sh.Output(binGo, "list", "./...")
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, pkg := range strings.Split(out, "\n") {
		if pkg != "" && !strings.Contains(pkg, "/tests/") && !strings.HasSuffix(pkg, "/tests") {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
