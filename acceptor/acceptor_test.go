package acceptor

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kektsukuba/stars/common"
	"github.com/kektsukuba/stars/directory"
	"github.com/kektsukuba/stars/policy"
	"github.com/kektsukuba/stars/router"
	"github.com/kektsukuba/stars/secret"
	"github.com/stretchr/testify/require"
)

func writeAllowAll(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "allow.cfg"), []byte("*\n"), 0600))
}

func TestAcceptorRejectsDisallowedHost(t *testing.T) {
	libdir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(libdir, "allow.cfg"), []byte("203.0.113.0\n"), 0600))

	cfg, err := policy.LoadConfig(libdir)
	require.NoError(t, err)

	dir := directory.New()
	log := common.NewTestLogger(t)
	r := &router.Router{Dir: dir, Cfg: cfg, ServerName: "System", Logger: log.WithField("test", t.Name())}

	acc, err := New("127.0.0.1:0", dir, cfg, []byte("secret"), r, 0, "System", log)
	require.NoError(t, err)
	defer acc.Shutdown()

	go acc.Serve()

	conn, err := net.Dial("tcp", acc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := reader.ReadString('\n')
	require.NoError(t, err, "rejected host must receive a rejection banner before the socket closes")
	require.Equal(t, "System Er. HostRejected\n", line)

	_, err = reader.ReadByte()
	require.Error(t, err, "socket must be closed after the rejection banner")
}

func TestAcceptorFullRegistrationFlow(t *testing.T) {
	libdir := t.TempDir()
	writeAllowAll(t, libdir)
	keydir := t.TempDir()
	require.NoError(t, secret.Generate(keydir))
	serverSecret, err := secret.Load(keydir)
	require.NoError(t, err)

	cfg, err := policy.LoadConfig(libdir)
	require.NoError(t, err)

	dir := directory.New()
	log := common.NewTestLogger(t)
	r := &router.Router{Dir: dir, Cfg: cfg, ServerName: "System", Logger: log.WithField("test", t.Name())}

	acc, err := New("127.0.0.1:0", dir, cfg, serverSecret, r, 0, "System", log)
	require.NoError(t, err)
	defer acc.Shutdown()

	go acc.Serve()

	conn, err := net.Dial("tcp", acc.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)

	banner, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(banner, "STARS "))

	_, err = conn.Write([]byte("alice\n"))
	require.NoError(t, err)

	nonceLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	nonce, err := secret.DecodeResponse(strings.TrimSpace(nonceLine))
	require.NoError(t, err)

	keyHex := strings.TrimSpace(strings.TrimPrefix(banner, "STARS "))
	parsedKey, err := strconv.ParseUint(keyHex, 16, 16)
	require.NoError(t, err)
	key := uint16(parsedKey)

	digest, err := secret.Digest(serverSecret, key, nonce)
	require.NoError(t, err)
	_, err = conn.Write([]byte(secret.EncodeDigest(digest) + "\n"))
	require.NoError(t, err)

	okLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "System Ok. alice\n", okLine)

	_, ok := dir.Lookup("alice")
	require.True(t, ok)
}
