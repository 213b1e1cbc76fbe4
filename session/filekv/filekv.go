// Package filekv persists the session KV as a YAML document on disk, optionally sealed
// with a passphrase. Every write replaces the whole file through a rename, so readers
// see either the previous or the next document.
package filekv

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/session"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
	"gopkg.in/yaml.v3"
)

const (
	documentVersion = 1
	saltLength      = 16
	nonceLength     = 24
	keyLength       = 32
)

// ErrWrongPassphrase is returned when a sealed file cannot be opened
var ErrWrongPassphrase = errors.New("filekv: wrong passphrase or corrupted file")

var _ session.KV = (*Store)(nil)

type document struct {
	Version int               `yaml:"version"`
	Salt    string            `yaml:"salt,omitempty"`
	Sealed  string            `yaml:"sealed,omitempty"`
	Values  map[string]string `yaml:"values,omitempty"`
}

type Store struct {
	path       string
	passphrase []byte
	scryptN    int

	mu   sync.Mutex
	salt []byte
	key  *[keyLength]byte
}

type Option func(*Store)

// WithPassphrase seals the file contents with a key derived from passphrase
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		if passphrase != "" {
			s.passphrase = []byte(passphrase)
		}
	}
}

// WithScryptCost overrides the scrypt N parameter (must be a power of two)
func WithScryptCost(n int) Option {
	return func(s *Store) {
		s.scryptN = n
	}
}

func New(path string, options ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrapf(err, "filekv.New: create directory")
	}

	s := &Store{
		path:    path,
		scryptN: 1 << 15,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Store) GetMany(keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return nil, err
	}

	found := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := values[k]; ok {
			found[k] = v
		}
	}
	return found, nil
}

func (s *Store) SetMany(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		current[k] = v
	}
	return s.write(current)
}

func (s *Store) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	changed := false
	for _, k := range keys {
		if _, ok := current[k]; ok {
			delete(current, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(current)
}

func (s *Store) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "filekv: read %s", s.path)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "filekv: decode %s", s.path)
	}

	if doc.Sealed == "" {
		if doc.Values == nil {
			doc.Values = make(map[string]string)
		}
		return doc.Values, nil
	}

	if s.passphrase == nil {
		return nil, errors.Wrapf(ErrWrongPassphrase, "filekv: %s is sealed and no passphrase is configured", s.path)
	}
	return s.open(doc)
}

func (s *Store) open(doc document) (map[string]string, error) {
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	sealed, err := base64.StdEncoding.DecodeString(doc.Sealed)
	if err != nil || len(sealed) < nonceLength {
		return nil, ErrWrongPassphrase
	}

	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])
	plain, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, key)
	if !ok {
		return nil, ErrWrongPassphrase
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(plain, &values); err != nil {
		return nil, errors.Wrapf(err, "filekv: decode sealed values")
	}
	return values, nil
}

func (s *Store) write(values map[string]string) error {
	doc := document{Version: documentVersion}

	if s.passphrase == nil {
		doc.Values = values
	} else {
		if err := s.seal(&doc, values); err != nil {
			return err
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "filekv: encode")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "filekv: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "filekv: write temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "filekv: chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "filekv: close temp file")
	}
	return errors.Wrapf(os.Rename(tmpName, s.path), "filekv: replace %s", s.path)
}

func (s *Store) seal(doc *document, values map[string]string) error {
	if s.salt == nil {
		salt := make([]byte, saltLength)
		if _, err := rand.Read(salt); err != nil {
			return errors.Wrapf(err, "filekv: generate salt")
		}
		s.salt = salt
		s.key = nil
	}
	key, err := s.deriveKey(s.salt)
	if err != nil {
		return err
	}

	plain, err := yaml.Marshal(values)
	if err != nil {
		return errors.Wrapf(err, "filekv: encode values")
	}

	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrapf(err, "filekv: generate nonce")
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, key)

	doc.Salt = base64.StdEncoding.EncodeToString(s.salt)
	doc.Sealed = base64.StdEncoding.EncodeToString(sealed)
	return nil
}

// deriveKey caches the key for the most recently used salt
func (s *Store) deriveKey(salt []byte) (*[keyLength]byte, error) {
	if s.key != nil && string(salt) == string(s.salt) {
		return s.key, nil
	}

	derived, err := scrypt.Key(s.passphrase, salt, s.scryptN, 8, 1, keyLength)
	if err != nil {
		return nil, errors.Wrapf(err, "filekv: derive key")
	}

	var key [keyLength]byte
	copy(key[:], derived)
	s.salt = append([]byte(nil), salt...)
	s.key = &key
	return s.key, nil
}
