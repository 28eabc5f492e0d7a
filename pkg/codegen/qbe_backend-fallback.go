//go:build windows

package codegen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/xplshn/psuc/pkg/config"
)

func (b *qbeBackend) assemble(qbeIR string, cfg *config.Config) (*bytes.Buffer, error) {
	if _, err := exec.LookPath("qbe"); err != nil {
		return nil, fmt.Errorf("self-contained QBE backend is not supported on Windows and qbe was not found in PATH: %w", err)
	}

	inputFile, err := os.CreateTemp("", "psuc-qbe-*.ssa")
	if err != nil {
		return nil, err
	}
	defer os.Remove(inputFile.Name())
	if _, err = inputFile.WriteString(qbeIR); err != nil {
		inputFile.Close()
		return nil, err
	}
	inputFile.Close()

	outputFileName := inputFile.Name() + ".s"
	defer os.Remove(outputFileName)
	cmd := exec.Command("qbe", "-o", outputFileName, "-t", cfg.BackendTarget, inputFile.Name())
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("\n--- QBE Compilation Failed ---\nGenerated IR:\n%s\n\nError: %w\n%s", qbeIR, err, output)
	}

	outputFile, err := os.Open(outputFileName)
	if err != nil {
		return nil, err
	}
	defer outputFile.Close()

	var asmBuf bytes.Buffer
	if _, err = io.Copy(&asmBuf, outputFile); err != nil {
		return nil, err
	}
	return &asmBuf, nil
}
