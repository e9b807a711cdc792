package async

import "sync"

// Token is the cancellation token of one request.
type Token struct {
	once sync.Once
	done chan struct{}
}

func newToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Canceled returns true once the request's result is no longer wanted.
func (t *Token) Canceled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the token is canceled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

func (t *Token) cancel() {
	t.once.Do(func() { close(t.done) })
}
