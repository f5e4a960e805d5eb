package transport

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// KeySpace hands out 16-bit node keys that are unique among all sockets
// currently live on the Acceptor -- including ones still mid-handshake
// and not yet in the Directory, per spec.md §4.1 step 3 ("re-roll on
// collision with any live key").
type KeySpace struct {
	mu   sync.Mutex
	live map[uint16]struct{}
}

// NewKeySpace returns an empty KeySpace.
func NewKeySpace() *KeySpace {
	return &KeySpace{live: make(map[uint16]struct{})}
}

// Acquire generates a fresh key, re-rolling on collision with any key
// currently held live.
func (k *KeySpace) Acquire() (uint16, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for {
		key, err := randomUint16()
		if err != nil {
			return 0, err
		}
		if _, taken := k.live[key]; taken {
			continue
		}
		k.live[key] = struct{}{}
		return key, nil
	}
}

// Release frees a key once its connection has fully terminated.
func (k *KeySpace) Release(key uint16) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.live, key)
}

func randomUint16() (uint16, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}
