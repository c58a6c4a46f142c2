//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "marquee"
	binaryDir  = "bin"
	cmdDir     = "./cmd/marquee"
	versionVar = "github.com/mesh-intelligence/marquee/internal/cli.Version"
)

// Build compiles the marquee binary to bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := "-X " + versionVar + "=" + version()
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	_ = os.Remove(coverProfile)
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

// version describes HEAD, falling back to "dev" outside a git checkout.
func version() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || out == "" {
		return "dev"
	}
	return strings.TrimPrefix(out, "v")
}
