// Package peer implements the host side of the control dialect: it consumes
// a line-delimited JSON stream, forwards non-control messages to registered
// handlers in arrival order, answers inbound control requests through a
// pluggable handler, and serializes outbound commands to the sink.
package peer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/codetide/agentpipe/jsonl"
	"github.com/codetide/agentpipe/protocol"
)

// MessageHandler receives every non-control-request message in arrival
// order. Lines that were not valid JSON arrive as protocol.OpaqueTextMessage.
type MessageHandler func(protocol.Message)

// ErrorHandler receives contained failures: handler panics, write failures,
// and terminal transport errors.
type ErrorHandler func(error)

// ControlHandler answers an inbound control request. It may block (for
// example awaiting a human decision); the peer keeps delivering subsequent
// messages while it runs, and serializes the correlated response when it
// returns. A returned error becomes an error-tagged control response.
type ControlHandler func(ctx context.Context, req protocol.ControlRequest) (any, error)

// Peer is a bidirectional protocol endpoint over one inbound stream and one
// outbound sink.
type Peer struct {
	scanner *jsonl.Scanner
	sink    io.Writer

	control     ControlHandler
	handlers    []MessageHandler
	errHandlers []ErrorHandler

	done    chan struct{}
	mu      sync.Mutex
	writeMu sync.Mutex
	started bool
	stopped atomic.Bool
}

// Option configures a Peer.
type Option func(*Peer)

// WithControlHandler sets the handler for inbound control requests. Without
// one, every control request is answered with an error response so the agent
// is never left waiting.
func WithControlHandler(h ControlHandler) Option {
	return func(p *Peer) { p.control = h }
}

// New creates a Peer reading from r and writing outbound commands to w.
func New(r io.Reader, w io.Writer, opts ...Option) *Peer {
	p := &Peer{
		scanner: jsonl.NewScanner(r),
		sink:    w,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnMessage registers a message handler. Registration is additive and not
// de-duplicated. Handlers registered after Start see only later messages.
func (p *Peer) OnMessage(h MessageHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
}

// OnError registers an error handler.
func (p *Peer) OnError(h ErrorHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errHandlers = append(p.errHandlers, h)
}

// Start begins consuming the inbound stream. Idempotent: a second call is a
// no-op.
func (p *Peer) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped.Load() {
		return
	}
	p.started = true
	go p.readLoop(ctx)
}

// Stop terminates the read loop. Safe to call at any time, including before
// Start and while a control handler is pending; a pending handler's response
// write after Stop is a no-op.
func (p *Peer) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.done)
	}
}

func (p *Peer) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		default:
		}

		line, err := p.scanner.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			// Transport failure is terminal for this peer; retry is an
			// orchestration-layer concern.
			if !p.stopped.Load() {
				p.emitError(&TransportError{Cause: err})
			}
			return
		}

		p.dispatch(ctx, line)
	}
}

func (p *Peer) dispatch(ctx context.Context, line jsonl.Line) {
	if !line.IsJSON() {
		p.deliver(protocol.OpaqueTextMessage{Text: line.Raw})
		return
	}

	msg, err := protocol.ParseMessage(line.Value)
	if err != nil {
		p.emitError(&ProtocolError{Line: line.Raw, Cause: err})
		return
	}

	if req, ok := msg.(protocol.ControlRequest); ok {
		// The handler may suspend; running it off the read loop keeps later
		// unrelated messages flowing. Delivery order of non-control
		// messages is unaffected because they stay on this goroutine.
		go p.handleControlRequest(ctx, req)
		return
	}

	p.deliver(msg)
}

// deliver forwards msg to every registered handler in order. A failing
// handler does not stop delivery to the rest.
func (p *Peer) deliver(msg protocol.Message) {
	p.mu.Lock()
	handlers := make([]MessageHandler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()

	for _, h := range handlers {
		p.invoke(h, msg)
	}
}

func (p *Peer) invoke(h MessageHandler, msg protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.emitError(fmt.Errorf("message handler panic: %v", r))
		}
	}()
	h(msg)
}

func (p *Peer) handleControlRequest(ctx context.Context, req protocol.ControlRequest) {
	resp := p.answer(ctx, req)

	if err := p.write(resp); err != nil {
		if err == ErrStopped {
			return // stopped while the handler was pending
		}
		p.emitError(fmt.Errorf("send control response: %w", err))
	}
}

func (p *Peer) answer(ctx context.Context, req protocol.ControlRequest) protocol.ControlResponse {
	if p.control == nil {
		return protocol.NewControlError(req.ID(), "no control handler registered")
	}

	result, err := p.safeControl(ctx, req)
	if err != nil {
		return protocol.NewControlError(req.ID(), err.Error())
	}
	return protocol.NewControlSuccess(req.ID(), result)
}

// safeControl invokes the control handler, converting a panic into an error
// so the remote side always receives a response.
func (p *Peer) safeControl(ctx context.Context, req protocol.ControlRequest) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("control handler panic: %v", r)
		}
	}()
	result, err = p.control(ctx, req)
	if err != nil {
		p.emitError(fmt.Errorf("control handler: %w", err))
	}
	return result, err
}

// Initialize sends the initialize command. Fire-and-forget: it resolves when
// the write completes and does not wait for a reply.
func (p *Peer) Initialize(hooks map[string]any) error {
	return p.write(protocol.NewInitialize(hooks))
}

// SendUserMessage sends a plain-text user message.
func (p *Peer) SendUserMessage(text string, sessionID string) error {
	return p.write(protocol.NewUserTextMessage(text, sessionID))
}

// SendUserContentBlocks sends a user message with structured content blocks.
func (p *Peer) SendUserContentBlocks(blocks []any, sessionID string) error {
	return p.write(protocol.NewUserBlocksMessage(blocks, sessionID))
}

// SetPermissionMode changes the agent's permission mode.
func (p *Peer) SetPermissionMode(mode, scope string) error {
	return p.write(protocol.NewSetPermissionMode(mode, scope))
}

// SetModel switches the active model mid-session.
func (p *Peer) SetModel(model string) error {
	return p.write(protocol.NewSetModel(model))
}

// SendInterrupt cancels the current turn.
func (p *Peer) SendInterrupt() error {
	return p.write(protocol.NewInterrupt())
}

// write serializes one command as a newline-terminated JSON line. Writes
// after Stop return ErrStopped.
func (p *Peer) write(msg protocol.Outbound) error {
	if p.stopped.Load() {
		return ErrStopped
	}

	b, err := msg.Marshal()
	if err != nil {
		return err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.stopped.Load() {
		return ErrStopped
	}
	if _, err := p.sink.Write(append(b, '\n')); err != nil {
		return &TransportError{Cause: err}
	}
	return nil
}

func (p *Peer) emitError(err error) {
	p.mu.Lock()
	handlers := make([]ErrorHandler, len(p.errHandlers))
	copy(handlers, p.errHandlers)
	p.mu.Unlock()

	for _, h := range handlers {
		h(err)
	}
}
