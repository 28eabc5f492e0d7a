//go:build !windows

package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xplshn/psuc/pkg/config"
	"modernc.org/libqbe"
)

func (b *qbeBackend) assemble(qbeIR string, cfg *config.Config) (*bytes.Buffer, error) {
	var asmBuf bytes.Buffer
	err := libqbe.Main(cfg.BackendTarget, "input.ssa", strings.NewReader(qbeIR), &asmBuf, nil)
	if err != nil {
		return nil, fmt.Errorf("\n--- QBE Compilation Failed ---\nGenerated IR:\n%s\n\nlibqbe error: %w", qbeIR, err)
	}
	return &asmBuf, nil
}
