// Package client implements the async NFSv4 client core: the mount state
// machine (C5) and stat operation (C6) that drive the compound builder,
// attribute decoder, and error mapper against a concrete RPC transport.
//
// Every public entry point is asynchronous in spirit -- it returns
// immediately and the caller's callback fires exactly once, later, with the
// result -- even though this implementation runs the RPC exchange on a
// goroutine rather than threading a continuation through an external event
// loop. This is the idiomatic Go rendering of the source's callback-driven
// continuation style (see DESIGN.md).
package client

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/wujs/libnfs/internal/logger"
	"github.com/wujs/libnfs/internal/nfs4/rpc"
	"github.com/wujs/libnfs/internal/nfs4/types"
)

// Client is the per-mount context (spec's "client context"): process-wide
// state for one mounted export. The zero value is not usable; construct
// with New.
type Client struct {
	Server string
	Export string

	metrics *Metrics

	mu              sync.RWMutex
	cwd             string
	rootFH          []byte
	clientID        uint64
	confirmVerifier [types.NFS4_VERIFIER_SIZE]byte
	verifier        [types.NFS4_VERIFIER_SIZE]byte
	name            string
	lastError       string

	transport *rpc.Transport
	auth      *rpc.UnixAuth
}

// New constructs a Client with a fresh random verifier and a unique client
// name. It does not dial -- call MountAsync to perform the handshake.
func New(metrics *Metrics) (*Client, error) {
	c := &Client{metrics: metrics}

	if _, err := rand.Read(c.verifier[:]); err != nil {
		return nil, fmt.Errorf("generate client verifier: %w", err)
	}
	c.name = "go-libnfs-" + uuid.New().String()
	c.auth = &rpc.UnixAuth{MachineName: c.name}

	return c, nil
}

// RootFH returns the root file handle obtained at mount, or nil if the
// client is not yet mounted.
func (c *Client) RootFH() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rootFH
}

// LastError returns the human-readable message from the most recent failed
// operation, or "" if none has failed yet. Mirrors the spec's "context's
// error slot" (§4.4, §7): a single shared error string, overwritten by
// every new failure.
func (c *Client) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) setError(msg string) {
	c.mu.Lock()
	c.lastError = msg
	c.mu.Unlock()
}

func (c *Client) setRootFH(fh []byte) {
	owned := make([]byte, len(fh))
	copy(owned, fh)
	c.mu.Lock()
	c.rootFH = owned
	c.mu.Unlock()
}

func (c *Client) setClientID(id uint64, verifier [types.NFS4_VERIFIER_SIZE]byte) {
	c.mu.Lock()
	c.clientID = id
	c.confirmVerifier = verifier
	c.mu.Unlock()
}

// cwdPath returns the current working directory, defaulting to "/" before
// any mount has resolved an export path.
func (c *Client) cwdPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cwd == "" {
		return "/"
	}
	return c.cwd
}

func (c *Client) setCwd(path string) {
	c.mu.Lock()
	c.cwd = path
	c.mu.Unlock()
}

// Callback is the completion signature every async operation invokes
// exactly once: status is 0 on success or a negative errno on failure;
// payload is the operation's result on success (nil for mount, an
// attrs.Stat for stat) and the error message string on failure, matching
// the source's dual use of the message slot.
type Callback func(status int, c *Client, payload any, cookie any)

// record is the callback record (spec §3): a caller-supplied completion
// callback, its cookie, and the saved path used in error messages, bound to
// one in-flight operation. fired guards the exactly-once invariant
// (testable properties 1-2): once fire has run, the record must not be
// touched again.
type record struct {
	client   *Client
	callback Callback
	cookie   any
	path     string
	op       string

	fired atomic.Bool
}

func newRecord(c *Client, op, path string, cb Callback, cookie any) *record {
	return &record{client: c, callback: cb, cookie: cookie, path: path, op: op}
}

// fire invokes the callback exactly once. Any call after the first is
// dropped rather than panicking: a defensive backstop, since every
// production call site in this package already guarantees a single fire
// per record by construction (one terminal path per continuation).
func (r *record) fire(status int, payload any) {
	if !r.fired.CompareAndSwap(false, true) {
		logger.Warn("callback record fired more than once", logger.Operation(r.op), logger.Path(r.path))
		return
	}
	if msg, ok := payload.(string); ok && status != 0 {
		r.client.setError(msg)
	}
	r.callback(status, r.client, payload, r.cookie)
}

// Close releases the underlying transport, if one was established.
func (c *Client) Close() error {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Close()
}

// submitCompound sends a COMPOUND request over the client's transport and
// returns the decoded RPC envelope plus the COMPOUND4res bytes that follow
// it. It does not map the outcome; submitAndCheck does that with the error
// mapper (C4). ctx governs cancellation/timeout delivery: its error is
// returned as-is for classifyTransportError to map.
func (c *Client) submitCompound(ctx context.Context, args []byte, op, path string) (rpc.Reply, []byte, error) {
	c.mu.RLock()
	transport := c.transport
	auth := c.auth
	c.mu.RUnlock()

	if transport == nil {
		return rpc.Reply{}, nil, fmt.Errorf("client is not connected")
	}

	cred := rpc.CredentialUnix(auth)
	body, err := transport.Call(ctx, types.NFS4_PROGRAM, types.NFS_V4, types.NFSPROC4_COMPOUND, cred, args)
	if err != nil {
		return rpc.Reply{}, nil, err
	}

	reply, err := rpc.DecodeReply(body)
	if err != nil {
		return rpc.Reply{}, nil, fmt.Errorf("decode rpc reply: %w", err)
	}
	if reply.ReplyStat != rpc.RPCMsgAccepted || reply.Accepted.AcceptStat != rpc.RPCSuccess {
		return reply, nil, fmt.Errorf("rpc call rejected: reply_stat=%d accept_stat=%d", reply.ReplyStat, reply.Accepted.AcceptStat)
	}

	return reply, body[reply.Accepted.ResultsOffset:], nil
}
