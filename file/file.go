// Package file stores secrets as AES-GCM encrypted files in a local
// directory. The encryption key is generated on first use and kept next to
// the entries, readable by the owner only.
package file

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/libopenstorage/keymaster"
)

const (
	// Name of the backend
	Name = keymaster.TypeFile
	// DirKey is the directory holding the entries and the key file.
	DirKey = "FILE_VAULT_DIR"

	keyFileName   = "vault.key"
	entrySuffix   = ".secret"
	keySize       = 32
	dirPerm       = 0700
	filePerm      = 0600
	defaultSubdir = "keymaster"
)

var (
	// ErrCorruptEntry is returned when an entry cannot be decrypted.
	ErrCorruptEntry = errors.New("vault entry is corrupt or was written with another key")
)

type fileVault struct {
	dir string
}

// New creates the file backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	dir := keymaster.Param(vaultConfig, DirKey)
	if dir == "" {
		var err error
		if dir, err = defaultDir(); err != nil {
			return nil, err
		}
	}
	return &fileVault{dir: dir}, nil
}

func defaultDir() (string, error) {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, defaultSubdir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine vault directory: %v", err)
	}
	return filepath.Join(home, ".local", "share", defaultSubdir), nil
}

func (f *fileVault) String() string {
	return Name
}

func (f *fileVault) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+entrySuffix)
}

// InsertOrReplace writes the entry to a temporary file and renames it over
// any previous entry.
func (f *fileVault) InsertOrReplace(
	_ context.Context,
	key string,
	payload []byte,
) error {
	passphrase, err := f.passphrase(true)
	if err != nil {
		return err
	}
	data, err := encrypt(payload, passphrase, []byte(key))
	if err != nil {
		return err
	}
	return writeFileAtomic(f.path(key), data)
}

func (f *fileVault) Fetch(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, keymaster.ErrSecretNotFound
		}
		return nil, err
	}
	passphrase, err := f.passphrase(false)
	if err != nil {
		return nil, err
	}
	payload, err := decrypt(data, passphrase, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return payload, nil
}

func (f *fileVault) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// passphrase reads the key file, creating it when create is set.
func (f *fileVault) passphrase(create bool) ([]byte, error) {
	keyPath := filepath.Join(f.dir, keyFileName)
	passphrase, err := os.ReadFile(keyPath)
	if err == nil {
		if len(passphrase) != keySize {
			return nil, fmt.Errorf("invalid key file %s", keyPath)
		}
		return passphrase, nil
	}
	if !errors.Is(err, os.ErrNotExist) || !create {
		return nil, err
	}

	if err := os.MkdirAll(f.dir, dirPerm); err != nil {
		return nil, err
	}
	passphrase = make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, passphrase); err != nil {
		return nil, err
	}
	// O_EXCL so a concurrent first use cannot overwrite a key already in use
	file, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return nil, err
	}
	if _, err := file.Write(passphrase); err != nil {
		file.Close()
		return nil, err
	}
	return passphrase, file.Close()
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// encrypt encrypts the data using the passphrase. The key is bound as
// additional data so an entry cannot be replayed under another key.
func encrypt(data, passphrase, key []byte) ([]byte, error) {
	gcm, err := getGCM(passphrase)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, data, key), nil
}

// decrypt decrypts the cipherData using the passphrase
func decrypt(cipherData, passphrase, key []byte) ([]byte, error) {
	gcm, err := getGCM(passphrase)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(cipherData) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, cipherData := cipherData[:nonceSize], cipherData[nonceSize:]
	return gcm.Open(nil, nonce, cipherData, key)
}

// getGCM returns golang's AEAD, a cipher mode for AES encryption
// using Galois/Counter Mode (GCM)
func getGCM(passphrase []byte) (cipher.AEAD, error) {
	c, err := aes.NewCipher(passphrase)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(c)
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
