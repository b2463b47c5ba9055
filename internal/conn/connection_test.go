package conn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmez/keyparse-go/internal/resp"
)

// setupMockConnection pairs two Connections over net.Pipe.
func setupMockConnection() (client, server *Connection) {
	clientConn, serverConn := net.Pipe()
	return New(clientConn, 0, 0), New(serverConn, 1024, time.Second)
}

func TestSendReadRequest(t *testing.T) {
	client, server := setupMockConnection()
	defer client.Close()
	defer server.Close()

	go func() {
		assert.NoError(t, client.Send("SET", "my key", "hello world\nline2"))
	}()

	raw, err := server.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$6\r\nmy key\r\n$17\r\nhello world\nline2\r\n", string(raw))
}

func TestWriteValueReceive(t *testing.T) {
	client, server := setupMockConnection()
	defer client.Close()
	defer server.Close()

	go func() {
		assert.NoError(t, server.WriteValue(resp.RedisString{Value: "PONG"}))
	}()

	reply, err := client.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, resp.RedisString{Value: "PONG"}, reply)
}

func TestReadRequest_IdleTimeout(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	server := New(serverConn, 0, 20*time.Millisecond)
	defer server.Close()

	_, err := server.ReadRequest()
	require.Error(t, err)
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout())
}

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		srv := New(nc, 0, time.Second)
		defer srv.Close()
		if _, err := srv.ReadRequest(); err == nil {
			srv.WriteValue(resp.RedisString{Value: "OK"})
		}
	}()

	client, err := Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.SendRaw(resp.EncodeStrings("AUTH", "secret")))
	reply, err := client.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "OK", reply.StringValue())
	assert.NotEmpty(t, client.RemoteAddr())
}
