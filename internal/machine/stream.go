package machine

// Stream processes a message in pieces (for example line by line), carrying
// the message position from one piece to the next as the wheels would.
type Stream struct {
	key     *Key
	encrypt bool
	pos     int
}

// NewStream starts a message at position 0.
func NewStream(k *Key, encrypt bool) *Stream {
	return &Stream{key: k, encrypt: encrypt}
}

// Process runs the next piece of the message through the machine.
func (s *Stream) Process(text string) (string, error) {
	out, next, err := s.key.EncryptDecryptAt(text, s.encrypt, s.pos)
	if err != nil {
		return "", err
	}
	s.pos = next
	return out, nil
}

// Position returns the number of letters processed so far.
func (s *Stream) Position() int {
	return s.pos
}

// Reset returns to the start of the message.
func (s *Stream) Reset() {
	s.pos = 0
}
