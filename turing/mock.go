package turing

// MockTransport is a scripted stand-in for the USB device.  It decodes
// every envelope it is handed, records the plaintext headers and
// payloads in order, and answers from Reply (or with a zeroed 512 byte
// ack when Reply is nil).
type MockTransport struct {
	// Ops holds the opcode of every transaction, in order
	Ops []byte

	// Headers holds the decrypted 504 byte plaintext of every envelope
	Headers [][]byte

	// Payloads holds the bytes that followed each envelope (nil when none)
	Payloads [][]byte

	// Reply, when set, computes the device reply for a transaction
	Reply func(op byte, payload []byte) []byte
}

// Transact implements Transport.
func (m *MockTransport) Transact(data []byte) ([]byte, error) {
	if len(data) < envelopeLen {
		return nil, ErrBadEnvelope
	}
	plain, err := decryptEnvelope(data[:envelopeLen])
	if err != nil {
		return nil, err
	}
	var payload []byte
	if len(data) > envelopeLen {
		payload = append([]byte(nil), data[envelopeLen:]...)
	}
	m.Ops = append(m.Ops, plain[0])
	m.Headers = append(m.Headers, plain)
	m.Payloads = append(m.Payloads, payload)
	if m.Reply != nil {
		return m.Reply(plain[0], payload), nil
	}
	return make([]byte, envelopeLen), nil
}
