package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// URLSigner mints short-lived signed URLs for stored attachment paths.
// Attachment paths themselves never leave the server; clients only ever see a
// capability URL that expires.
type URLSigner struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
}

func NewURLSigner(secret, baseURL string, ttl time.Duration) *URLSigner {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &URLSigner{secret: []byte(secret), baseURL: baseURL, ttl: ttl}
}

func (s *URLSigner) mac(path string, expires int64) string {
	h := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(h, "%s|%d", path, expires)
	return hex.EncodeToString(h.Sum(nil))
}

// Sign returns a URL for path that verifies until the TTL elapses.
func (s *URLSigner) Sign(path string) string {
	expires := time.Now().Add(s.ttl).Unix()
	return fmt.Sprintf("%s/files/%s?expires=%d&sig=%s",
		s.baseURL, url.PathEscape(path), expires, s.mac(path, expires))
}

// Verify checks the signature and expiry for a previously signed path.
func (s *URLSigner) Verify(path, expiresStr, sig string) bool {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() >= expires {
		return false
	}
	return hmac.Equal([]byte(s.mac(path, expires)), []byte(sig))
}
