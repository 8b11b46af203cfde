//go:build mage
// +build mage

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const (
	appName = "huddle-backend"
	cliName = "huddle-cli"
	distDir = "dist"
)

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func Build() error {
	mg.Deps(Tidy)
	fmt.Println("Building...")

	if err := os.MkdirAll(distDir, 0755); err != nil {
		return err
	}

	fmt.Println("Copying config file...")
	src, err := os.Open("config.yaml")
	if err != nil {
		return fmt.Errorf("error opening config.yaml: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(distDir, "config.yaml"))
	if err != nil {
		return fmt.Errorf("error creating dist config.yaml: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("error copying config file: %w", err)
	}

	if err := run("go", "build", "-o", filepath.Join(distDir, appName), "./cmd/server"); err != nil {
		return err
	}
	return run("go", "build", "-o", filepath.Join(distDir, cliName), "./cmd/cli")
}

func Install() error {
	mg.Deps(Build)
	fmt.Println("Installing...")
	return os.Rename(filepath.Join(distDir, appName), "/usr/bin/"+appName)
}

func Tidy() error {
	fmt.Println("Tidying modules...")
	return run("go", "mod", "tidy")
}

func Test() error {
	fmt.Println("Running tests...")
	return run("go", "test", "-race", "./...")
}

func Vet() error {
	fmt.Println("Vetting...")
	return run("go", "vet", "./...")
}

func Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(distDir)
}
