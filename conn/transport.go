/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package conn

import (
	"context"
	"crypto/tls"
	"net"
)

// Transport distinguishes connections that need a SOCK-phase handshake
// (TLS) from plain connections that go straight to DATA.
type Transport interface {
	// RequiresHandshake reports whether Handshake must run before the
	// connection enters PhaseConnected.
	RequiresHandshake() bool

	// Handshake drives the SOCK-phase negotiation (e.g. tls.Conn.HandshakeContext).
	Handshake(ctx context.Context, raw net.Conn) (net.Conn, error)
}

// plainTransport skips the handshake phase entirely.
type plainTransport struct{}

func (plainTransport) RequiresHandshake() bool { return false }

func (plainTransport) Handshake(_ context.Context, raw net.Conn) (net.Conn, error) {
	return raw, nil
}

// Plain returns the Transport used by connections with no SOCK-phase
// negotiation.
func Plain() Transport { return plainTransport{} }

// tlsTransport wraps a *tls.Config the way certificates.TLSConfig.TlsConfig
// hands one out, keeping the gorelay conn package decoupled from the
// certificate-store package itself.
type tlsTransport struct {
	cfg    *tls.Config
	client bool
}

// TLSServer returns a Transport that performs a server-side TLS
// handshake using cfg (typically produced by certificates.TLSConfig.TlsConfig).
func TLSServer(cfg *tls.Config) Transport {
	return tlsTransport{cfg: cfg}
}

// TLSClient returns a Transport that performs a client-side TLS handshake.
func TLSClient(cfg *tls.Config) Transport {
	return tlsTransport{cfg: cfg, client: true}
}

func (t tlsTransport) RequiresHandshake() bool { return true }

func (t tlsTransport) Handshake(ctx context.Context, raw net.Conn) (net.Conn, error) {
	var tc *tls.Conn
	if t.client {
		tc = tls.Client(raw, t.cfg)
	} else {
		tc = tls.Server(raw, t.cfg)
	}
	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, ErrorHandshakeFailed.Error()
	}
	return tc, nil
}
