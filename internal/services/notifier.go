package services

import (
	"context"
	"log"
	"sync"
	"time"
)

const notifyTimeout = 30 * time.Second

// Notifier runs best-effort side effects (mail, alerts) off the request path.
// Failures are logged, never retried.
type Notifier struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Go(name string, fn func(ctx context.Context) error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		log.Printf("[notify][%s] dropped: notifier closed", name)
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				log.Printf("[notify][%s] panic: %v", name, p)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("[notify][%s] failed: %v", name, err)
		}
	}()
}

// Wait blocks until every started task has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Close stops accepting tasks and drains the running ones.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.wg.Wait()
}
