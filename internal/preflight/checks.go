package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"storyreel/internal/config"
	"storyreel/internal/services/genai"
)

const genaiCheckName = "Generative API"

// CheckGenAI verifies that the generative API is reachable and the key is
// valid. It uses a 30-second timeout and a single attempt.
func CheckGenAI(ctx context.Context, cfg *config.Config) Result {
	if cfg == nil {
		return Result{Name: genaiCheckName, Detail: "Unknown"}
	}
	if cfg.GenAI.APIKey == "" {
		return Result{Name: genaiCheckName, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := genai.FromConfig(cfg, genai.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: genaiCheckName, Detail: summarizeGenAIError(err)}
	}
	return Result{Name: genaiCheckName, Passed: true, Detail: fmt.Sprintf("%s reachable (%s)", cfg.GenAI.BaseURL, cfg.GenAI.TextModel)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeGenAIError produces a human-readable summary for health check failures.
func summarizeGenAIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (generative API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (generative API unreachable)"
	}
	if code, ok := genai.StatusCode(err); ok && (code == http.StatusUnauthorized || code == http.StatusForbidden) {
		return "auth failed (invalid API key)"
	}
	return err.Error()
}
