//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Ingest builds the binary and runs corpus ingestion over resources/.
func Ingest() error {
	mg.Deps(Build)
	return runBin("ingest")
}

// Essay builds the binary and generates an essay for the topic in the
// TOPIC environment variable.
func Essay() error {
	mg.Deps(Build)
	topic := os.Getenv("TOPIC")
	if topic == "" {
		topic = "The McDonaldization of society"
	}
	return runBin("essay", topic, "--output", filepath.Join("output", "essays", "essay.yaml"))
}

func runBin(args ...string) error {
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
