package ghostscript

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Compressor defines the behaviour the upload path needs from the
// compression collaborator.
type Compressor interface {
	Compress(ctx context.Context, inputPath, outputPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps Ghostscript CLI interactions.
type Client struct {
	binary  string
	preset  string
	timeout time.Duration
	exec    Executor
}

var _ Compressor = (*Client)(nil)

// New constructs a Ghostscript client with a fixed quality preset.
func New(binary, preset string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ghostscript binary required")
	}
	preset = strings.TrimSpace(preset)
	if preset == "" {
		return nil, errors.New("ghostscript preset required")
	}
	client := &Client{
		binary:  binary,
		preset:  preset,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Compress rewrites inputPath as a smaller PDF at outputPath. Ghostscript
// must exit zero and leave a readable, non-empty output file; anything else
// is an error and the caller falls back to the original bytes.
func (c *Client) Compress(ctx context.Context, inputPath, outputPath string) error {
	if inputPath == "" || outputPath == "" {
		return errors.New("input and output paths required")
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/" + c.preset,
		"-dNOPAUSE",
		"-dBATCH",
		"-dQUIET",
		"-sOutputFile=" + outputPath,
		inputPath,
	}
	if err := c.exec.Run(runCtx, c.binary, args, nil); err != nil {
		return fmt.Errorf("ghostscript: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("ghostscript produced no output file: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("ghostscript produced an empty output file")
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if onOutput != nil {
				onOutput(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
