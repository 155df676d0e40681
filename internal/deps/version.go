package deps

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Version probes a tool's version string from the first line of its
// --version output. Empty when the probe fails; availability is reported
// separately by CheckBinaries.
func Version(ctx context.Context, binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := commandContext(ctx, binary, "--version")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	line := strings.SplitN(strings.TrimSpace(stdout.String()), "\n", 2)[0]
	return strings.TrimSpace(line)
}
