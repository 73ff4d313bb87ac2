package raffleutil

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/raffleutil/log"
)

// KeepAlivePeriod is the TCP keep-alive period of API connections.
const KeepAlivePeriod = 3 * time.Minute

// ErrListenerStopped is returned by Accept once the stop channel is closed.
var ErrListenerStopped = errors.New("listener stopped")

// StoppableListener is a TCP listener for the API. Accepted connections have
// keep-alive enabled and Accept returns ErrListenerStopped once stopC is
// closed.
type StoppableListener struct {
	*net.TCPListener
	stopC <-chan struct{}
}

// NewStoppableListener listens on addr until stopC is closed.
func NewStoppableListener(addr string, stopC <-chan struct{}) (*StoppableListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &StoppableListener{TCPListener: ln.(*net.TCPListener), stopC: stopC}, nil
}

type acceptResult struct {
	conn *net.TCPConn
	err  error
}

// Accept waits for the next connection.
func (ln *StoppableListener) Accept() (net.Conn, error) {
	resC := make(chan acceptResult, 1)
	go func() {
		tc, err := ln.AcceptTCP()
		resC <- acceptResult{conn: tc, err: err}
	}()
	select {
	case <-ln.stopC:
		return nil, ErrListenerStopped
	case res := <-resC:
		if res.err != nil {
			return nil, res.err
		}
		ctx := context.TODO()
		if err := res.conn.SetKeepAlive(true); err != nil {
			log.Error(ctx, err)
		}
		if err := res.conn.SetKeepAlivePeriod(KeepAlivePeriod); err != nil {
			log.Error(ctx, err)
		}
		return res.conn, nil
	}
}
