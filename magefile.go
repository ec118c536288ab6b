//go:build mage
// +build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

// Build builds the server binary.
func Build() error {
	fmt.Println("Building server...")
	return sh.Run("go", "build", "-o", "bin/server", "./cmd/server")
}

// BuildMigrate builds the migration binary.
func BuildMigrate() error {
	fmt.Println("Building migrate...")
	return sh.Run("go", "build", "-o", "bin/migrate", "./cmd/migrate")
}

// Test runs all tests.
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet.
func Lint() error {
	fmt.Println("Running vet...")
	return sh.RunV("go", "vet", "./...")
}

// Run builds and starts the server.
func Run() error {
	mg.Deps(Build)
	return sh.RunV("./bin/server")
}

// Migrate builds and runs database migrations.
func Migrate() error {
	mg.Deps(BuildMigrate)
	return sh.RunV("./bin/migrate")
}

// Clean removes build artifacts.
func Clean() error {
	fmt.Println("Cleaning...")
	return sh.Rm("bin")
}
