// Description: 凭证密封
// 令牌与 API 密钥落盘前用 NaCl secretbox 密封, 随机 nonce 前置, base64 输出。
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize 密钥字节数
	KeySize   = 32
	nonceSize = 24
)

// ErrSealedPayload 密文被篡改或密钥不符
var ErrSealedPayload = errors.New("sealed payload corrupt or key mismatch")

// Sealer 对称密封器
type Sealer struct {
	key [KeySize]byte
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("sealer key must be %d bytes, got %d", KeySize, len(key))
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// KeyFromEnv 从环境变量读取密钥
func KeyFromEnv(name string) ([]byte, error) {
	v := os.Getenv(name)
	if v == "" {
		return nil, fmt.Errorf("environment variable %s not set", name)
	}
	if len(v) != KeySize {
		return nil, fmt.Errorf("key in %s must be %d bytes, got %d", name, KeySize, len(v))
	}
	return []byte(v), nil
}

// Seal 密封明文, nonce 随机, 同一明文每次产生不同密文
func (s *Sealer) Seal(plain []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open 解封 Seal 的输出
func (s *Sealer) Open(encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(sealed) < nonceSize {
		return nil, ErrSealedPayload
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrSealedPayload
	}
	return plain, nil
}
