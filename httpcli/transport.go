/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

package httpcli

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	libtls "github.com/nabbar/gorelay/certificates"
	libptc "github.com/nabbar/gorelay/network/protocol"
	liberr "github.com/nabbar/gorelay/errors"
	"golang.org/x/net/http2"
)

const (
	clientDialTimeout   = 30 * time.Second
	clientDialKeepAlive = 30 * time.Second
)

// GetTransport builds a fresh *http.Transport with the package's
// pooling defaults. The standard library's DefaultTransport is never
// shared so per-client TLS/dial tuning can't leak between clients.
func GetTransport(disableKeepAlive, disableCompression, http2Tr bool) *http.Transport {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     http2Tr,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		DisableKeepAlives:     disableKeepAlive,
		DisableCompression:    disableCompression,
	}

	SetTransportDial(tr, false, libptc.NetworkTCP, "", "")

	return tr
}

// SetTransportTLS installs tls's client configuration for servername
// onto tr.
func SetTransportTLS(tr *http.Transport, tls libtls.TLSConfig, servername string) {
	if tr == nil || tls == nil {
		return
	}

	tr.TLSClientConfig = tls.TlsConfig(servername)
}

// SetTransportDial installs the dialer: when forceIP is set, every
// outgoing connection ignores the requested address and dials ip over
// netw instead; local, when non-empty, pins the dialer's local
// address. Without forceIP a plain keep-alive dialer is installed.
func SetTransportDial(tr *http.Transport, forceIP bool, netw libptc.NetworkProtocol, ip string, local string) {
	if tr == nil {
		return
	}

	dial := &net.Dialer{
		Timeout:   clientDialTimeout,
		KeepAlive: clientDialKeepAlive,
	}

	if local != "" {
		if addr, err := net.ResolveTCPAddr(libptc.NetworkTCP.Code(), net.JoinHostPort(local, "0")); err == nil {
			dial.LocalAddr = addr
		}
	}

	if forceIP && ip != "" {
		code := netw.Code()
		if code == "" {
			code = libptc.NetworkTCP.Code()
		}
		tr.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
			return dial.DialContext(ctx, code, ip)
		}
		return
	}

	tr.DialContext = dial.DialContext
}

// SetTransportProxy routes every request on tr through the given proxy
// endpoint instead of the environment's.
func SetTransportProxy(tr *http.Transport, proxy *url.URL) {
	if tr == nil || proxy == nil {
		return
	}

	tr.Proxy = http.ProxyURL(proxy)
}

// GetClientCustom wraps an already-tuned transport into a client,
// negotiating HTTP/2 onto it when asked.
func GetClientCustom(tr *http.Transport, http2Tr bool, timeout time.Duration) (*http.Client, liberr.Error) {
	if http2Tr {
		if err := http2.ConfigureTransport(tr); err != nil {
			return nil, ErrorClientTransportHttp2.Error(err)
		}
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// GetClientTimeout returns a client for servername with the default
// TLS configuration.
func GetClientTimeout(servername string, http2Tr bool, timeout time.Duration) (*http.Client, liberr.Error) {
	return GetClientTls(servername, libtls.Default, http2Tr, timeout)
}

// GetClientTls returns a client for servername using the given TLS
// configuration.
func GetClientTls(servername string, tls libtls.TLSConfig, http2Tr bool, timeout time.Duration) (*http.Client, liberr.Error) {
	tr := GetTransport(false, false, http2Tr)
	SetTransportTLS(tr, tls, servername)
	return GetClientCustom(tr, http2Tr, timeout)
}

// GetClientTlsForceIp is GetClientTls with the dial target pinned to
// ip over the given network, keeping servername for SNI/verification.
func GetClientTlsForceIp(netw Network, ip string, servername string, tls libtls.TLSConfig, http2Tr bool, timeout time.Duration) (*http.Client, liberr.Error) {
	tr := GetTransport(false, false, http2Tr)
	SetTransportTLS(tr, tls, servername)
	SetTransportDial(tr, true, libptc.Parse(netw.Code()), ip, "")
	return GetClientCustom(tr, http2Tr, timeout)
}

// GetClientError returns a default-TLS client for servername, used by
// NewClient's simple constructor path.
func GetClientError(servername string) (*http.Client, liberr.Error) {
	return GetClientTimeout(servername, true, 0)
}