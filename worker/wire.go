package worker

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrBadFrame is returned when a compressed frame cannot be decoded.
var ErrBadFrame = errors.New("malformed frame")

const (
	frameHeaderLen = 4

	// maxRasterPixels bounds the raster a worker renders or accepts.
	maxRasterPixels = 1 << 24

	// maxRequestBytes bounds one decoded frame sent to a server.
	maxRequestBytes = 1 << 20
	// maxResultBytes bounds one decoded frame sent to a client.
	maxResultBytes = 4*maxRasterPixels + 1<<16
)

// Codec compresses the byte stream between worker endpoints. Every Write
// on a wrapped connection becomes one frame:
//
//	length uint32 | zstd(payload)
//
// The length is big endian and counts the compressed bytes. A Codec is
// safe for concurrent use and may wrap any number of connections.
type Codec struct {
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	maxFrame int
}

// NewCodec returns a codec whose frames decode to at most maxFrame bytes.
func NewCodec(maxFrame int) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd.NewWriter: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxFrame)))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd.NewReader: %w", err)
	}
	return &Codec{enc: enc, dec: dec, maxFrame: maxFrame}, nil
}

// clientCodec is shared by all Remote workers of the process.
var clientCodec = sync.OnceValues(func() (*Codec, error) {
	return NewCodec(maxResultBytes)
})

// Wrap returns conn with compressed framing on both directions.
func (c *Codec) Wrap(conn net.Conn) net.Conn {
	return &compressedConn{Conn: conn, codec: c}
}

// Close releases the encoder and decoder. Wrapped connections must not be
// used afterwards.
func (c *Codec) Close() error {
	c.dec.Close()
	return c.enc.Close()
}

type compressedConn struct {
	net.Conn
	codec *Codec

	hdr     [frameHeaderLen]byte
	pending []byte // decoded but not yet read
}

func (c *compressedConn) Write(p []byte) (int, error) {
	frame := c.codec.enc.EncodeAll(p, make([]byte, frameHeaderLen, frameHeaderLen+len(p)/2))
	binary.BigEndian.PutUint32(frame, uint32(len(frame)-frameHeaderLen))
	if _, err := c.Conn.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *compressedConn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		if err := c.readFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *compressedConn) readFrame() error {
	if _, err := io.ReadFull(c.Conn, c.hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(c.hdr[:])
	if n == 0 || uint64(n) > uint64(c.codec.maxFrame) {
		return fmt.Errorf("%w: %d compressed bytes", ErrBadFrame, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.Conn, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	data, err := c.codec.dec.DecodeAll(buf, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	c.pending = data
	return nil
}
