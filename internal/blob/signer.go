package blob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrBadSignature = errors.New("bad blob signature")
	ErrExpired      = errors.New("blob link expired")
)

// Signer issues and checks HMAC-SHA256 signed blob links.
type Signer struct {
	key     []byte
	baseURL string
	now     func() time.Time
}

// NewSigner returns a Signer producing links under baseURL (e.g. "/blobs").
func NewSigner(key []byte, baseURL string) *Signer {
	return &Signer{key: key, baseURL: baseURL, now: time.Now}
}

// URL returns baseURL/<path>?exp=<unix>&sig=<hex>.
func (s *Signer) URL(p string, ttl time.Duration) string {
	exp := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(p, exp))
	return s.baseURL + "/" + (&url.URL{Path: p}).EscapedPath() + "?" + q.Encode()
}

// Verify checks the exp and sig query values for p.
func (s *Signer) Verify(p, expParam, sigParam string) error {
	exp, err := strconv.ParseInt(expParam, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	want, err := hex.DecodeString(sigParam)
	if err != nil {
		return ErrBadSignature
	}
	got, _ := hex.DecodeString(s.sign(p, exp))
	if !hmac.Equal(want, got) {
		return ErrBadSignature
	}
	if s.now().Unix() > exp {
		return ErrExpired
	}
	return nil
}

func (s *Signer) sign(p string, exp int64) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(p))
	mac.Write([]byte{'|'})
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
