// Package transport carries raw frames into the ingest pipeline over UDP
// and gRPC.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/signalsfoundry/radar-track-ingest/internal/ingest"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
)

// MaxDatagramSize is the largest UDP payload read in one call.
const MaxDatagramSize = 65535

// DatagramMetrics counts queue outcomes.
type DatagramMetrics interface {
	DatagramQueued()
	DatagramDropped()
}

// UDPListener reads one frame per datagram and hands it to a pool of
// workers. Datagrams arriving while the queue is full are dropped.
type UDPListener struct {
	conn    net.PacketConn
	sink    ingest.FrameSink
	log     logging.Logger
	metrics DatagramMetrics

	workers int
	depth   int

	queued  atomic.Uint64
	dropped atomic.Uint64
}

// UDPOption customises a UDPListener.
type UDPOption func(*UDPListener)

// WithWorkers sets the number of goroutines calling the sink.
func WithWorkers(n int) UDPOption {
	return func(l *UDPListener) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueDepth sets how many datagrams may wait for a worker.
func WithQueueDepth(n int) UDPOption {
	return func(l *UDPListener) {
		if n > 0 {
			l.depth = n
		}
	}
}

// WithDatagramMetrics attaches queue metrics.
func WithDatagramMetrics(m DatagramMetrics) UDPOption {
	return func(l *UDPListener) {
		l.metrics = m
	}
}

// ListenUDP binds addr and returns a listener ready to Serve.
func ListenUDP(addr string, sink ingest.FrameSink, log logging.Logger, opts ...UDPOption) (*UDPListener, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", addr, err)
	}
	return NewUDPListener(conn, sink, log, opts...), nil
}

// NewUDPListener wraps an existing packet connection.
func NewUDPListener(conn net.PacketConn, sink ingest.FrameSink, log logging.Logger, opts ...UDPOption) *UDPListener {
	if log == nil {
		log = logging.Noop()
	}
	l := &UDPListener{
		conn:    conn,
		sink:    sink,
		log:     log,
		workers: 1,
		depth:   64,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Addr returns the bound address.
func (l *UDPListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Queued returns how many datagrams were handed to workers.
func (l *UDPListener) Queued() uint64 {
	return l.queued.Load()
}

// Dropped returns how many datagrams were discarded on a full queue.
func (l *UDPListener) Dropped() uint64 {
	return l.dropped.Load()
}

// Serve reads until ctx is cancelled or the connection fails. It closes
// the connection on return and waits for queued frames to be processed.
// Cancellation is not an error.
func (l *UDPListener) Serve(ctx context.Context) error {
	queue := make(chan []byte, l.depth)
	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range queue {
				l.sink.Process(ctx, frame)
			}
		}()
	}

	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()

	l.log.Info(ctx, "udp listener started",
		logging.String("addr", l.conn.LocalAddr().String()),
		logging.Int("workers", l.workers),
		logging.Int("queue_depth", l.depth),
	)

	buf := make([]byte, MaxDatagramSize)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			_ = l.conn.Close()
			close(queue)
			wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.log.Info(ctx, "udp listener stopped",
					logging.Any("queued", l.queued.Load()),
					logging.Any("dropped", l.dropped.Load()),
				)
				return nil
			}
			return fmt.Errorf("read udp: %w", err)
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		select {
		case queue <- frame:
			l.queued.Add(1)
			if l.metrics != nil {
				l.metrics.DatagramQueued()
			}
		default:
			l.dropped.Add(1)
			if l.metrics != nil {
				l.metrics.DatagramDropped()
			}
			l.log.Debug(ctx, "dropping datagram, queue full", logging.String("from", addrString(from)), logging.Int("bytes", n))
		}
	}
}

// SendUDP writes each frame as one datagram to addr.
func SendUDP(ctx context.Context, addr string, frames ...[]byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("dial udp %s: %w", addr, err)
	}
	defer conn.Close()
	for _, f := range frames {
		if _, err := conn.Write(f); err != nil {
			return fmt.Errorf("send udp: %w", err)
		}
	}
	return nil
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
