package rpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// Transport owns one TCP connection to an NFSv4 server and multiplexes
// concurrent calls over it by XID, the way a real NFS client shares one
// connection across many in-flight COMPOUND requests. Within one mount or
// stat call the client core issues its compounds one after another, but
// Transport does not assume that -- callers submit concurrently and
// Transport matches each reply to its call.
//
// A single writeMu serializes writes (RPC calls on one connection must not
// interleave their bytes), mirroring the teacher connection's write
// serialization for replies.
type Transport struct {
	conn    net.Conn
	writeMu sync.Mutex
	nextXID uint32

	mu      sync.Mutex
	pending map[uint32]chan pendingReply
	closed  bool
	readErr error
}

type pendingReply struct {
	body []byte
	err  error
}

// Dial opens a TCP connection to address and starts the background read
// loop that demultiplexes replies by XID. address is host:port; a bare host
// is dialed on the standard NFS port 2049.
func Dial(ctx context.Context, address string) (*Transport, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, "2049")
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	t := &Transport{
		conn:    conn,
		pending: make(map[uint32]chan pendingReply),
	}
	go t.readLoop()
	return t, nil
}

// Close shuts down the connection and fails every call still waiting on a
// reply, so no caller blocks forever past connection loss.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	err := t.conn.Close()
	for _, ch := range pending {
		ch <- pendingReply{err: fmt.Errorf("transport closed")}
	}
	return err
}

func (t *Transport) readLoop() {
	for {
		body, err := ReadMessage(t.conn)
		if err != nil {
			t.failAll(err)
			return
		}
		reply, err := DecodeReply(body)
		if err != nil {
			// A message whose RPC envelope does not decode is not routed,
			// even if its XID was readable; drop it and keep reading rather
			// than tearing down every other in-flight call on this
			// connection. A caller waiting on it is released only by its
			// own ctx or by connection loss.
			continue
		}
		t.deliver(reply.XID, pendingReply{body: body})
	}
}

func (t *Transport) failAll(err error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.readErr = err
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, ch := range pending {
		ch <- pendingReply{err: err}
	}
}

func (t *Transport) deliver(xid uint32, r pendingReply) {
	t.mu.Lock()
	ch, ok := t.pending[xid]
	if ok {
		delete(t.pending, xid)
	}
	t.mu.Unlock()
	if ok {
		ch <- r
	}
}

// NextXID allocates the next transaction ID for this connection.
func (t *Transport) NextXID() uint32 {
	return atomic.AddUint32(&t.nextXID, 1)
}

// Call sends one COMPOUND request and blocks until its matching reply
// arrives, ctx is done, or the connection fails. It returns the full
// reassembled reply message; the caller decodes the RPC envelope with
// DecodeReply and the procedure results with the compound package.
//
// Call is safe to invoke from multiple goroutines concurrently; the client
// core's async operations each run Call in their own goroutine and deliver
// the result to their caller's callback when it returns (see
// internal/nfs4/client).
func (t *Transport) Call(ctx context.Context, program, version, procedure uint32, cred Credential, args []byte) ([]byte, error) {
	xid := t.NextXID()
	ch := make(chan pendingReply, 1)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, fmt.Errorf("transport closed: %w", t.readErr)
	}
	t.pending[xid] = ch
	t.mu.Unlock()

	message := EncodeCall(xid, program, version, procedure, cred, Credential{Flavor: AuthNull}, args)

	t.writeMu.Lock()
	err := WriteFragment(t.conn, message)
	t.writeMu.Unlock()
	if err != nil {
		t.deliver(xid, pendingReply{}) // drop any race with a reply that beat the error
		return nil, fmt.Errorf("write call: %w", err)
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return r.body, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, xid)
		t.mu.Unlock()
		return nil, ctx.Err()
	}
}
