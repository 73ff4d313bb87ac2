package raffleutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoppableListener(t *testing.T) {
	a := assert.New(t)
	stopC := make(chan struct{})
	ln, err := NewStoppableListener("127.0.0.1:0", stopC)
	require.NoError(t, err)
	defer ln.Close()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()
	conn, err := ln.Accept()
	a.NoError(err)
	if a.NotNil(conn) {
		a.NoError(conn.Close())
	}

	close(stopC)
	conn, err = ln.Accept()
	a.Nil(conn)
	a.Equal(ErrListenerStopped, err)
}
