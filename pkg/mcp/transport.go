package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Transport is the underlying framed message stream used by the server.
// Send must be safe for concurrent use; tool invocations run in parallel.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

type stdioTransport struct {
	reader      *bufio.Reader
	writer      io.Writer
	readCloser  io.Closer
	writeCloser io.Closer
	writeMu     sync.Mutex
}

// NewStdioTransport frames messages with Content-Length headers over the
// provided stream pair, typically os.Stdin and os.Stdout.
func NewStdioTransport(in io.ReadCloser, out io.WriteCloser) Transport {
	return &stdioTransport{
		reader:      bufio.NewReader(in),
		writer:      out,
		readCloser:  in,
		writeCloser: out,
	}
}

func (t *stdioTransport) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload))

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := io.WriteString(t.writer, header); err != nil {
		return err
	}
	_, err := t.writer.Write(payload)
	return err
}

func (t *stdioTransport) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	length, err := t.readContentLength()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(t.reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *stdioTransport) Close() error {
	var err error
	if t.readCloser != nil {
		if e := t.readCloser.Close(); e != nil {
			err = e
		}
	}
	if t.writeCloser != nil {
		if e := t.writeCloser.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (t *stdioTransport) readContentLength() (int, error) {
	length := -1
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			value := strings.TrimSpace(line[len("content-length:"):])
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return 0, fmt.Errorf("mcp: invalid content length: %w", err)
			}
			length = parsed
		}
	}
	if length < 0 {
		return 0, errors.New("mcp: missing Content-Length header")
	}
	return length, nil
}
