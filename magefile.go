//go:build mage

package main

import (
	"fmt"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	appName = "todos"
	version = "0.1.0"
)

// Default target to run when none is specified
var Default = Build

// Build builds the binary for the current platform
func Build() error {
	fmt.Println("Building", appName, "for", runtime.GOOS+"/"+runtime.GOARCH)

	ldflags := fmt.Sprintf("-X main.version=%s", version)
	env := map[string]string{
		"CGO_ENABLED": "0",
	}

	return sh.RunWith(env, "go", "build", "-ldflags", ldflags, "-o", appName)
}

// Test runs the test suite
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "./...")
}

// Lint runs go fmt and go vet
func Lint() error {
	fmt.Println("Running go fmt...")
	if err := sh.Run("go", "fmt", "./..."); err != nil {
		return err
	}

	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}

// Check runs lint and tests
func Check() error {
	mg.Deps(Lint, Test)
	return nil
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning build artifacts...")
	for _, artifact := range []string{appName, appName + ".exe", "dist/"} {
		if err := sh.Rm(artifact); err != nil {
			continue
		}
	}
	return nil
}

// Dev runs the application against a throwaway in-memory database
func Dev() error {
	return sh.RunV("go", "run", ".", "-db", ":memory:", "-log-level", "debug")
}
