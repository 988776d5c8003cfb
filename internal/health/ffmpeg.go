package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// FFmpegChecker verifies the decode toolchain is runnable. Frame
// capture shells out to ffmpeg, so a missing or broken binary means no
// frames can be decoded.
type FFmpegChecker struct {
	binaryPath string
	timeout    time.Duration
}

func NewFFmpegChecker(binaryPath string) *FFmpegChecker {
	if binaryPath == "" {
		if path, err := exec.LookPath("ffmpeg"); err == nil {
			binaryPath = path
		}
	}
	return &FFmpegChecker{
		binaryPath: binaryPath,
		timeout:    5 * time.Second,
	}
}

func (f *FFmpegChecker) Name() string {
	return "ffmpeg"
}

func (f *FFmpegChecker) Check(ctx context.Context) error {
	if f.binaryPath == "" {
		return fmt.Errorf("ffmpeg binary not found in PATH")
	}

	if filepath.IsAbs(f.binaryPath) {
		if _, err := os.Stat(f.binaryPath); err != nil {
			return fmt.Errorf("ffmpeg binary not accessible: %w", err)
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out, err := exec.CommandContext(checkCtx, f.binaryPath, "-version").Output()
	if err != nil {
		return fmt.Errorf("ffmpeg version check failed: %w", err)
	}
	if !strings.Contains(string(out), "ffmpeg version") {
		return fmt.Errorf("unexpected ffmpeg version output")
	}

	return nil
}
