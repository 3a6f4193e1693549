package control

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HMAC keys fixed by control-spec for the SAFECOOKIE method.
const (
	safeCookieServerKey = "Tor safe cookie authentication server-to-controller hash"
	safeCookieClientKey = "Tor safe cookie authentication controller-to-server hash"
)

// AuthenticateSafeCookie runs the SAFECOOKIE handshake with the given
// cookie file contents: it exchanges nonces with the daemon via
// AUTHCHALLENGE, verifies the server's HMAC proof that it knows the
// cookie, and authenticates with the controller-side HMAC. Unlike
// plain cookie authentication, a fake daemon cannot learn the cookie
// from this exchange.
func (c *Conn) AuthenticateSafeCookie(ctx context.Context, cookie []byte) error {
	clientNonce := make([]byte, 32)
	if _, err := rand.Read(clientNonce); err != nil {
		return fmt.Errorf("generate client nonce: %w", err)
	}

	fields, err := c.AuthChallenge(ctx, hex.EncodeToString(clientNonce))
	if err != nil {
		return err
	}
	serverHash, err := hex.DecodeString(fields["SERVERHASH"])
	if err != nil {
		return &SyntaxError{Line: fields["SERVERHASH"], Reason: "SERVERHASH is not hex"}
	}
	serverNonce, err := hex.DecodeString(fields["SERVERNONCE"])
	if err != nil {
		return &SyntaxError{Line: fields["SERVERNONCE"], Reason: "SERVERNONCE is not hex"}
	}

	wantServerHash := safeCookieHMAC(safeCookieServerKey, cookie, clientNonce, serverNonce)
	if !hmac.Equal(serverHash, wantServerHash) {
		return fmt.Errorf("safe cookie handshake: server hash mismatch")
	}

	clientHash := safeCookieHMAC(safeCookieClientKey, cookie, clientNonce, serverNonce)
	return c.Authenticate(ctx, clientHash)
}

// safeCookieHMAC computes HMAC-SHA256(key, cookie || clientNonce ||
// serverNonce).
func safeCookieHMAC(key string, cookie, clientNonce, serverNonce []byte) []byte {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(cookie)
	mac.Write(clientNonce)
	mac.Write(serverNonce)
	return mac.Sum(nil)
}
