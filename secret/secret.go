package secret

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/kektsukuba/stars/common"
)

// Filename is the name of the file in --keydir holding the server's shared
// challenge secret.
const Filename = "stars.secret"

// Size is the length, in bytes, of a generated secret.
const Size = 32

// Load reads the server secret from keydir. It does not create one: a
// missing or empty secret file is a ConfigLoad error, since the server
// cannot authenticate any client without it.
func Load(keydir string) ([]byte, error) {
	path := filepath.Join(keydir, Filename)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewError(common.ConfigLoad, "", "cannot read server secret: "+err.Error())
	}

	decoded, err := common.DecodeFromString(string(raw))
	if err != nil {
		return nil, common.NewError(common.ConfigLoad, "", "malformed server secret: "+err.Error())
	}

	if len(decoded) == 0 {
		return nil, common.NewError(common.ConfigLoad, "", "server secret is empty")
	}

	return decoded, nil
}

// Generate creates a fresh random secret and writes it to keydir, failing if
// one already exists there. Used by the `stars keygen` command.
func Generate(keydir string) error {
	path := filepath.Join(keydir, Filename)

	if _, err := os.Stat(path); err == nil {
		return common.NewError(common.ConfigLoad, "", "a secret already exists under "+keydir)
	}

	buf := make([]byte, Size)
	if _, err := rand.Read(buf); err != nil {
		return err
	}

	if err := os.MkdirAll(keydir, 0700); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(common.EncodeToString(buf)), 0600)
}
