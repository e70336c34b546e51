package insight

import (
	"sync/atomic"
)

// KeyManager rotates between the configured API keys so a rate-limited key
// can be swapped out without aborting the session.
type KeyManager struct {
	keys    []string
	current uint32
}

func NewKeyManager(keys []string) *KeyManager {
	return &KeyManager{keys: keys}
}

// Current returns the key in use without advancing rotation.
func (km *KeyManager) Current() string {
	if len(km.keys) == 0 {
		return ""
	}
	return km.keys[atomic.LoadUint32(&km.current)%uint32(len(km.keys))]
}

// Next advances to the next key and returns it.
func (km *KeyManager) Next() string {
	if len(km.keys) == 0 {
		return ""
	}
	n := atomic.AddUint32(&km.current, 1)
	return km.keys[n%uint32(len(km.keys))]
}

// Len reports how many keys are available.
func (km *KeyManager) Len() int {
	return len(km.keys)
}
