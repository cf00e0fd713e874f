package oracle

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"
)

// Coordinator is an in-process oracle. Each request is answered on its own
// goroutine after delay with words derived from HMAC-SHA256(secret, "<id>:<i>"),
// so a published secret lets anyone replay the values.
type Coordinator struct {
	id       string
	secret   []byte
	delay    time.Duration
	numWords int

	mu       sync.Mutex
	next     RequestID
	consumer Consumer
	closed   bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewCoordinator(id string, secret []byte, delay time.Duration) *Coordinator {
	if len(secret) == 0 {
		secret = generateSecret()
	}
	return &Coordinator{
		id:       id,
		secret:   secret,
		delay:    delay,
		numWords: 1,
		stop:     make(chan struct{}),
	}
}

func generateSecret() []byte {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("oracle: failed to generate secret: %v", err))
	}
	return bytes
}

func (c *Coordinator) ID() string {
	return c.id
}

// SecretHash lets clients check a later-revealed secret.
func (c *Coordinator) SecretHash() string {
	hash := sha256.Sum256(c.secret)
	return hex.EncodeToString(hash[:])
}

func (c *Coordinator) Subscribe(consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumer = consumer
}

func (c *Coordinator) RequestRandom(ctx context.Context) (RequestID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, fmt.Errorf("oracle %s is closed", c.id)
	}
	if c.consumer == nil {
		return 0, ErrNoConsumer
	}

	c.next++
	id := c.next
	consumer := c.consumer

	c.wg.Add(1)
	go c.fulfill(consumer, id)

	return id, nil
}

func (c *Coordinator) Resume(last RequestID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last > c.next {
		c.next = last
	}
}

func (c *Coordinator) fulfill(consumer Consumer, id RequestID) {
	defer c.wg.Done()

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.stop:
			return
		}
	}

	values := c.Words(id)
	if err := consumer.OnRandomDelivered(context.Background(), c.id, id, values); err != nil {
		log.Printf("oracle %s: delivery of request %d rejected: %v", c.id, id, err)
	}
}

// Words returns the random words for request id.
func (c *Coordinator) Words(id RequestID) []uint64 {
	words := make([]uint64, c.numWords)
	for i := range words {
		h := hmac.New(sha256.New, c.secret)
		fmt.Fprintf(h, "%d:%d", id, i)
		words[i] = binary.BigEndian.Uint64(h.Sum(nil)[:8])
	}
	return words
}

// Close drops deliveries that have not fired yet and waits for running ones.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Wait blocks until every issued request has been delivered.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
