// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"audioviz/internal/transport"
)

/*
Frame Packet Structure (BigEndian)

+------------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description               |
|-----------------|-----------|--------------|---------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing  |
| Timestamp       | int64     | 8            | Nanoseconds since epoch   |
| Bass            | float32   | 4            | Band energy, 0..1         |
| Mid             | float32   | 4            | Band energy, 0..1         |
| Treble          | float32   | 4            | Band energy, 0..1         |
| Average         | float32   | 4            | Full-spectrum mean, 0..1  |
| Level           | float32   | 4            | Input peak level, 0..1    |
| Spectrum Count  | uint16    | 2            | Number of spectrum bytes  |
| Spectrum        | []byte    | N            | Byte-quantized magnitudes |
+------------------------------------------------------------------------+
*/

// Transport packs frames into the binary layout above and sends them
// through a Sender. The packet buffer is reused across sends.
type Transport struct {
	sender *Sender
	mu     sync.Mutex
	packet *bytes.Buffer
}

var _ transport.Transport = (*Transport)(nil)

// New dials target and returns a frame transport around it.
func New(target string) (*Transport, error) {
	sender, err := NewSender(target)
	if err != nil {
		return nil, err
	}
	return &Transport{
		sender: sender,
		packet: new(bytes.Buffer),
	}, nil
}

// Send packs and transmits one frame.
func (t *Transport) Send(frame *transport.Frame) error {
	if frame == nil {
		return fmt.Errorf("udp transport: nil frame")
	}
	if len(frame.Spectrum) > 0xFFFF {
		return fmt.Errorf("udp transport: spectrum too large for packet: %d", len(frame.Spectrum))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.packet.Reset()
	err := binary.Write(t.packet, binary.BigEndian, frame.Seq)
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, frame.Timestamp)
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, float32(frame.Bass))
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, float32(frame.Mid))
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, float32(frame.Treble))
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, float32(frame.Average))
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, float32(frame.Level))
	}
	if err == nil {
		err = binary.Write(t.packet, binary.BigEndian, uint16(len(frame.Spectrum)))
	}
	if err == nil {
		_, err = t.packet.Write(frame.Spectrum)
	}
	if err != nil {
		return fmt.Errorf("udp transport: pack frame %d: %w", frame.Seq, err)
	}

	return t.sender.Send(t.packet.Bytes())
}

// Close closes the underlying sender.
func (t *Transport) Close() error {
	return t.sender.Close()
}
