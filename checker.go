package gohunspell

import (
	"context"
	"fmt"
	"sync"
)

// Checker runs a Session on a single goroutine it owns. Spell and suggestion queries issued
// from other goroutines, a separate UI surface for example, marshal a request over a channel
// and await a single response instead of touching the session concurrently.
//
// The Checker takes ownership of the Session: after NewChecker the caller must not use the
// Session directly, only through Do.
func NewChecker(ctx context.Context, sess *Session) (*Checker, error) {
	if sess == nil {
		return nil, fmt.Errorf("gohunspell.NewChecker got nil Session")
	}
	c := &Checker{reqChan: make(chan checkerReq)}
	ctx, c.shutdown = context.WithCancelCause(ctx)
	c.wg.Add(1)
	go c.run(ctx, sess)
	return c, nil
}

type checkerReq struct {
	run      func(*Session)
	doneChan chan struct{}
}

type Checker struct {
	wg       sync.WaitGroup
	shutdown context.CancelCauseFunc
	reqChan  chan checkerReq
}

func (c *Checker) run(ctx context.Context, sess *Session) {
	defer c.wg.Done()
	defer sess.Close(context.WithoutCancel(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.reqChan:
			req.run(sess)
			close(req.doneChan)
		}
	}
}

func (c *Checker) do(ctx context.Context, fn func(*Session)) error {
	logPrefix := "Checker.do"
	req := checkerReq{run: fn, doneChan: make(chan struct{})}

	select {
	case <-ctx.Done():
		return fmt.Errorf(logPrefix+" while waiting for the session %w", context.Cause(ctx))
	case c.reqChan <- req:
	}
	// Once sent the request runs regardless; timing out here only abandons the response.
	select {
	case <-ctx.Done():
		return fmt.Errorf(logPrefix+" while waiting for a response %w", context.Cause(ctx))
	case <-req.doneChan:
		return nil
	}
}

// Do runs fn against the session on its owning goroutine. Management calls, loading and
// switching dictionaries for example, go through here.
func (c *Checker) Do(ctx context.Context, fn func(*Session) error) error {
	var err error
	if doErr := c.do(ctx, func(s *Session) { err = fn(s) }); doErr != nil {
		return doErr
	}
	return err
}

// CheckWord reports whether the session accepts word, under the quorum policy of the last
// SwitchDictionary call. Set a timeout with context.WithTimeout to handle a busy session.
func (c *Checker) CheckWord(ctx context.Context, word string) (bool, error) {
	var ok bool
	var err error
	if doErr := c.do(ctx, func(s *Session) { ok, err = s.CheckWord(ctx, word) }); doErr != nil {
		return false, doErr
	}
	return ok, err
}

// Suggest returns the selected dictionary's ranked suggestions for text.
func (c *Checker) Suggest(ctx context.Context, text string) ([]string, error) {
	var suggestions []string
	if doErr := c.do(ctx, func(s *Session) { suggestions = s.Suggest(ctx, text) }); doErr != nil {
		return nil, doErr
	}
	return suggestions, nil
}

// Close stops the owning goroutine and disposes the session.
func (c *Checker) Close() {
	c.shutdown(nil)
	c.wg.Wait()
}
