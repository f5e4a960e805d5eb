package transport

import (
	"bufio"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadLineNormalizesCRLF(t *testing.T) {
	server, client := Pipe()
	defer server.Close()
	defer client.Close()

	conn := Wrap(server)
	go func() {
		_, _ = client.Write([]byte("hello world\r\n"))
	}()

	line, err := conn.ReadLine(0)
	require.NoError(t, err)
	require.Equal(t, "hello world", line)
}

func TestReadLineHonorsDeadline(t *testing.T) {
	server, client := Pipe()
	defer server.Close()
	defer client.Close()

	conn := Wrap(server)
	_, err := conn.ReadLine(20 * time.Millisecond)
	require.Error(t, err)
}

func TestWriteLineAppendsNewline(t *testing.T) {
	server, client := Pipe()
	defer server.Close()
	defer client.Close()

	conn := Wrap(server)
	go func() {
		_ = conn.WriteLine("banner")
	}()

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "banner\n", line)
}
