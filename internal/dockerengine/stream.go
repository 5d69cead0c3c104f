package dockerengine

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/burenotti/runbox/pkg/rberrors"
)

// frameHeaderSize is Docker's multiplexed-stream frame header: one stream
// type byte, three padding bytes, then a big-endian uint32 payload length.
const frameHeaderSize = 8

const (
	streamTypeStdout = 1
	streamTypeStderr = 2
)

// duplexStream demultiplexes a Tty=false attached container connection by
// hand, since stdcopy.StdCopy only offers a synchronous, whole-stream copy
// and the pipeline's output listener (§4.7) needs one message at a time as
// frames arrive.
type duplexStream struct {
	conn   net.Conn
	reader io.Reader
}

func (d *duplexStream) ReadMessage() (StreamMessage, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(d.reader, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return StreamMessage{}, io.EOF
		}
		return StreamMessage{}, err
	}

	streamID := int(header[0])
	size := binary.BigEndian.Uint32(header[4:8])

	payload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(d.reader, payload); err != nil {
			return StreamMessage{}, &rberrors.EngineError{Op: "read_stream", Err: err}
		}
	}

	return StreamMessage{StreamID: streamID, Data: payload}, nil
}

func (d *duplexStream) WriteStdin(data []byte) error {
	if _, err := d.conn.Write(data); err != nil {
		return &rberrors.EngineError{Op: "write_stdin", Err: err}
	}
	return nil
}

func (d *duplexStream) Close() error {
	return d.conn.Close()
}
