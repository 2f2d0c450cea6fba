// Package natsscope provides a lifecycle destroyed remotely by a NATS message.
//
// A scope subscribes to "<prefix>.lifecycle.<name>". The first message on
// that subject destroys it, cancelling every task attached to it. This works
// as a kill switch for tasks running in another process.
package natsscope

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/fluxorio/asyncworker/pkg/core"
	"github.com/fluxorio/asyncworker/pkg/lifecycle"
)

// Config configures a NATS-backed scope
type Config struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222".
	URL string

	// Prefix is prepended to the subject. Default: "asyncworker".
	Prefix string

	// Name identifies the scope; it becomes the last subject token.
	Name string

	// ConnName is an optional NATS connection name.
	ConnName string

	Logger core.Logger
}

// Scope is a lifecycle.Scope destroyed by a message on its subject
type Scope struct {
	*lifecycle.Scope

	subject string
	nc      *nats.Conn
	ownConn bool
	logger  core.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// Subject returns the subject for a scope name under prefix
func Subject(prefix, name string) string {
	if prefix == "" {
		prefix = "asyncworker"
	}
	return strings.TrimSuffix(prefix, ".") + ".lifecycle." + name
}

// Connect dials NATS and subscribes a new scope. Close releases the connection.
func Connect(cfg Config) (*Scope, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url, func(o *nats.Options) error {
		if cfg.ConnName != "" {
			o.Name = cfg.ConnName
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("natsscope: connect %s: %w", url, err)
	}

	s, err := newScope(nc, Subject(cfg.Prefix, cfg.Name), cfg.Logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.ownConn = true
	return s, nil
}

// New subscribes a scope on an existing connection. Close leaves nc open.
func New(nc *nats.Conn, prefix, name string, logger core.Logger) (*Scope, error) {
	return newScope(nc, Subject(prefix, name), logger)
}

func newScope(nc *nats.Conn, subject string, logger core.Logger) (*Scope, error) {
	if logger == nil {
		logger = core.NewNopLogger()
	}
	s := &Scope{
		Scope:   lifecycle.NewScope(),
		subject: subject,
		nc:      nc,
		logger:  logger.With("subject", subject),
	}

	sub, err := nc.Subscribe(subject, s.onMsg)
	if err != nil {
		return nil, fmt.Errorf("natsscope: subscribe %s: %w", subject, err)
	}
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	// The subscription is live on the server once New returns.
	if err := nc.Flush(); err != nil {
		s.unsubscribe()
		return nil, fmt.Errorf("natsscope: flush %s: %w", subject, err)
	}
	return s, nil
}

func (s *Scope) onMsg(msg *nats.Msg) {
	s.logger.Infof("destroy requested (%d bytes)", len(msg.Data))
	s.Destroy()
	s.unsubscribe()
}

func (s *Scope) unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			s.logger.Warnf("unsubscribe: %v", err)
		}
		s.sub = nil
	}
}

// Subject returns the subject that destroys this scope
func (s *Scope) Subject() string {
	return s.subject
}

// Close stops listening without destroying the scope
func (s *Scope) Close() error {
	s.unsubscribe()
	if s.ownConn {
		s.nc.Close()
	}
	return nil
}

// Destroy publishes a destroy request for the scope name under prefix
func Destroy(nc *nats.Conn, prefix, name string) error {
	subject := Subject(prefix, name)
	if err := nc.Publish(subject, nil); err != nil {
		return fmt.Errorf("natsscope: publish %s: %w", subject, err)
	}
	return nc.Flush()
}
