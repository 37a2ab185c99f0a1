package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Serve reads one JSON request from r, runs it, and writes JSON lines to w: the
// log messages as they happen and then the terminal message, which is returned.
func Serve(ctx context.Context, r io.Reader, w io.Writer, h *Handler) (Message, error) {
	var req Request
	dec := json.NewDecoder(bufio.NewReader(r))
	if err := dec.Decode(&req); err != nil {
		msg := failure(fmt.Sprintf("invalid request: %v", err))
		return msg, writeMessage(w, msg)
	}

	var mu sync.Mutex
	var writeErr error
	emit := func(m Message) {
		mu.Lock()
		defer mu.Unlock()
		if writeErr == nil {
			writeErr = writeMessage(w, m)
		}
	}
	msg := h.Handle(ctx, req, emit)

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		return msg, writeErr
	}
	return msg, writeMessage(w, msg)
}

func writeMessage(w io.Writer, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
