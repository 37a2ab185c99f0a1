package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// newCommand is swapped in tests.
var newCommand = exec.CommandContext

// Client runs each request in a fresh worker subprocess, so a crash or hang
// inside the engine cannot take the caller down.
type Client struct {
	// Executable defaults to the running binary.
	Executable string
	// Args are passed before the request is written to stdin, e.g. "worker".
	Args []string
}

// Do implements Runner. A worker that exits without a terminal message yields a
// failed result naming its exit code.
func (c *Client) Do(ctx context.Context, req Request, onLog func(Message)) (Message, error) {
	exe := c.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return Message{}, fmt.Errorf("locate executable: %w", err)
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Message{}, err
	}

	cmd := newCommand(ctx, exe, c.Args...)
	cmd.Stdin = bytes.NewReader(append(body, '\n'))
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Message{}, err
	}
	if err := cmd.Start(); err != nil {
		return Message{}, fmt.Errorf("start worker: %w", err)
	}

	var terminal *Message
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var m Message
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			slog.Warn("worker.client.bad_line", "err", err)
			continue
		}
		if !m.Terminal() {
			if onLog != nil {
				onLog(m)
			}
			continue
		}
		if terminal == nil {
			terminal = &m
		}
	}
	readErr := sc.Err()
	if readErr != nil {
		slog.Warn("worker.client.read", "err", readErr)
		// Unblock a worker that is still writing.
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()

	if terminal != nil {
		return *terminal, nil
	}
	if readErr != nil {
		return failure("read worker output: " + readErr.Error()), nil
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code = exitErr.ExitCode()
	} else if waitErr == nil {
		code = 0
	}
	slog.Warn("worker.client.no_result", "code", code, "err", waitErr)
	return failure(fmt.Sprintf("worker exited with code %d", code)), nil
}
