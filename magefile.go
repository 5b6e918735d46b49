//go:build mage

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/dsnp/frequency-resolver/config"
)

var (
	Go = "go"
)

// Build builds the library and both binaries.
func Build() error {
	fmt.Println("Building...")
	if err := sh.Run(Go, "build", "./..."); err != nil {
		return err
	}
	for _, cmd := range []string{"dsnpresolver", "dsnpresolve"} {
		if err := sh.Run(Go, "build", "-o", filepath.Join("bin", cmd), "./cmd/"+cmd); err != nil {
			return err
		}
	}
	return nil
}

// Clean deletes any build artifacts.
func Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll("bin")
}

// Run starts the resolver service with config/config.toml, or the file named by CONFIG_PATH.
func Run() error {
	env := map[string]string{}
	if _, ok := os.LookupEnv(config.ConfigPath.String()); !ok {
		env[config.ConfigPath.String()] = config.DefaultConfigPath
	}
	_, err := sh.Exec(env, os.Stdout, os.Stderr, findOnPathOrGoPath(Go), "run", "./cmd/dsnpresolver")
	return err
}

// Resolve resolves a single user id or did:dsnp identifier and prints the document.
func Resolve(target string) error {
	return runGo("./cmd/dsnpresolve", target)
}

// Test runs unit tests without coverage.
// The mage `-v` option will trigger a verbose output of the test
func Test() error {
	return runTests()
}

// CITest runs unit tests with coverage as a part of CI.
// The mage `-v` option will trigger a verbose output of the test
func CITest() error {
	return runTests("-covermode=atomic", "-coverprofile=coverage.out")
}

// Integration runs the integration tests against a running resolver, see integration/common.go.
func Integration() error {
	return runTests("-tags=integration", "-count=1", "./integration/...")
}

func runTests(extraTestArgs ...string) error {
	args := []string{"test"}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	args = append(args, "-race")
	args = append(args, extraTestArgs...)
	if !hasPackage(extraTestArgs) {
		args = append(args, "./...")
	}
	testEnv := map[string]string{
		"CGO_ENABLED": "1",
		"GO111MODULE": "on",
	}
	writer := ColorizeTestStdout()
	fmt.Printf("%+v", args)
	_, err := sh.Exec(testEnv, writer, os.Stderr, Go, args...)
	return err
}

func hasPackage(args []string) bool {
	for _, arg := range args {
		if strings.HasPrefix(arg, "./") {
			return true
		}
	}
	return false
}

func ColorizeTestOutput(w io.Writer) io.Writer {
	writer := NewRegexpWriter(w, `PASS.*`, "\033[32m$0\033[0m")
	return NewRegexpWriter(writer, `FAIL.*`, "\033[31m$0\033[0m")
}

func ColorizeTestStdout() io.Writer {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return ColorizeTestOutput(os.Stdout)
	}
	return os.Stdout
}

type regexpWriter struct {
	inner io.Writer
	re    *regexp.Regexp
	repl  []byte
}

func NewRegexpWriter(inner io.Writer, re string, repl string) io.Writer {
	return &regexpWriter{inner, regexp.MustCompile(re), []byte(repl)}
}

func (w *regexpWriter) Write(p []byte) (int, error) {
	r := w.re.ReplaceAll(p, w.repl)
	n, err := w.inner.Write(r)
	if n > len(r) {
		n = len(r)
	}
	return n, err
}

func runGo(cmd string, args ...string) error {
	return sh.RunV(findOnPathOrGoPath(Go), append([]string{"run", cmd}, args...)...)
}

func findOnPathOrGoPath(execName string) string {
	if p := findOnPath(execName); p != "" {
		return p
	}
	p := filepath.Join(goPath(), "bin", execName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	fmt.Printf("Could not find %s on PATH or in GOPATH/bin\n", execName)
	return execName
}

func findOnPath(execName string) string {
	pathEnv := os.Getenv("PATH")
	pathDirectories := strings.Split(pathEnv, string(os.PathListSeparator))
	for _, pathDirectory := range pathDirectories {
		possible := filepath.Join(pathDirectory, execName)
		stat, err := os.Stat(possible)
		if err == nil && (stat.Mode()&0111) != 0 {
			return possible
		}
	}
	return ""
}

func goPath() string {
	if goPath, ok := os.LookupEnv("GOPATH"); ok {
		return goPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		logrus.Fatal(err)
		return ""
	}
	return filepath.Join(home, Go)
}

// CBT runs clean; build; test.
func CBT() error {
	Clean()
	if err := Build(); err != nil {
		return err
	}
	return Test()
}
