package abuse

import (
	"sync"

	"github.com/google/uuid"
)

// Challenges tracks the outstanding captcha challenge per address.
// Generation of the challenge image itself is an external collaborator
// (spec.md §1 Non-goals); this only tracks which challenge ID is
// currently live for a given address and what answer it expects.
type Challenges struct {
	mu     sync.Mutex
	byAddr map[string]challenge
}

type challenge struct {
	id     string
	answer string
}

func NewChallenges() *Challenges {
	return &Challenges{byAddr: make(map[string]challenge)}
}

// New mints a fresh challenge ID for address, replacing any prior one,
// and records the expected answer.
func (c *Challenges) New(address, answer string) string {
	id := uuid.NewString()
	c.mu.Lock()
	c.byAddr[address] = challenge{id: id, answer: answer}
	c.mu.Unlock()
	return id
}

// Verify checks answer against the live challenge for address and
// clears it regardless of outcome (a captcha is single-use).
func (c *Challenges) Verify(address, id, answer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.byAddr[address]
	delete(c.byAddr, address)
	return ok && ch.id == id && ch.answer == answer
}

// Clear removes any pending challenge for address (connection-close
// cleanup per spec.md §5's "removes the captcha entry for the
// address").
func (c *Challenges) Clear(address string) {
	c.mu.Lock()
	delete(c.byAddr, address)
	c.mu.Unlock()
}
