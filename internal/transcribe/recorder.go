package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder captures microphone audio to a file between Begin and End.
type Recorder interface {
	Begin(ctx context.Context) error
	End(ctx context.Context) (string, error)
}

// PermissionGate answers whether microphone capture is allowed. The
// platform shell injects the real check; the default gate allows.
type PermissionGate interface {
	CheckMicrophone(ctx context.Context) error
}

type allowAllGate struct{}

func NewAllowAllGate() PermissionGate {
	return &allowAllGate{}
}

func (allowAllGate) CheckMicrophone(ctx context.Context) error {
	return nil
}

// FFMPEGRecorder records microphone audio to a wav file using ffmpeg.
type FFMPEGRecorder struct {
	command     string
	inputFormat string
	inputDevice string
	outputDir   string

	mu       sync.Mutex
	proc     *os.Process
	waitErr  <-chan error
	stderr   *bytes.Buffer
	filePath string
}

func NewFFMPEGRecorder(command, inputFormat, inputDevice, outputDir string) *FFMPEGRecorder {
	if command == "" {
		command = "ffmpeg"
	}
	if inputFormat == "" {
		inputFormat = "pulse"
	}
	if inputDevice == "" {
		inputDevice = "default"
	}
	if outputDir == "" {
		outputDir = os.TempDir()
	}
	return &FFMPEGRecorder{
		command:     command,
		inputFormat: inputFormat,
		inputDevice: inputDevice,
		outputDir:   outputDir,
	}
}

func (r *FFMPEGRecorder) Begin(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.proc != nil {
		return errors.New("recording already in progress")
	}

	filePath := filepath.Join(r.outputDir, fmt.Sprintf("capture-%s.wav", uuid.NewString()))

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", r.inputFormat,
		"-i", r.inputDevice,
		"-ac", "1",
		"-ar", "16000",
		"-y", filePath,
	}

	// The capture must outlive the request that started it; End owns
	// the shutdown, so the process is not bound to ctx.
	cmd := exec.Command(r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// Give ffmpeg a moment to fail fast on a bad device.
	select {
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	r.proc = cmd.Process
	r.waitErr = waitErr
	r.stderr = &stderr
	r.filePath = filePath
	return nil
}

func (r *FFMPEGRecorder) End(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.proc == nil {
		return "", errors.New("no recording in progress")
	}

	_ = r.proc.Signal(os.Interrupt)

	var stopErr error
	select {
	case err, ok := <-r.waitErr:
		if ok {
			stopErr = normalizeExitErr(err)
		}
	case <-time.After(1200 * time.Millisecond):
		_ = r.proc.Kill()
		if err, ok := <-r.waitErr; ok {
			stopErr = normalizeExitErr(err)
		}
	case <-ctx.Done():
		_ = r.proc.Kill()
		stopErr = ctx.Err()
	}

	filePath := r.filePath
	stderr := r.stderr
	r.proc = nil
	r.waitErr = nil
	r.stderr = nil
	r.filePath = ""

	if stopErr != nil && stderr != nil && stderr.Len() > 0 {
		return "", fmt.Errorf("%w: %s", stopErr, bytes.TrimSpace(stderr.Bytes()))
	}
	if stopErr != nil {
		return "", stopErr
	}
	return filePath, nil
}

// ffmpeg exits non-zero when interrupted; that is the normal stop path.
func normalizeExitErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
