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

package proxycfg

import (
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/nabbar/gorelay/lb"
	liblog "github.com/nabbar/gorelay/logger"
	"github.com/nabbar/gorelay/resolver"
	"github.com/nabbar/gorelay/sched"
	"github.com/nabbar/gorelay/statsock"
	"github.com/nabbar/gorelay/stick"
)

// Runtime is the fully wired result of Build: live lb.Backends (each
// owning its *lb.Server set), stick.Tables, resolver.Resolvers, and a
// statsock.Registry every stats-socket/admin-API surface reads from.
// Frontends are returned as-is (listener setup is cmd/gorelay's job,
// since it owns the netpoll.Poller and sched.Scheduler instances).
type Runtime struct {
	Config    *Config
	Backends  map[string]*lb.Backend
	Checkers  map[string]*lb.HealthChecker
	Tables    map[string]*stick.Table
	Resolvers map[string]*resolver.Resolvers
	Registry  *statsock.Registry
}

// Build validates cfg and constructs every runtime object it
// describes, registering backends and stick-tables into a fresh
// statsock.Registry. sc receives the resolvers' retry tasks so the
// caller's scheduler drives them alongside stream processing.
func Build(cfg *Config, sc *sched.Scheduler, log liblog.FuncLog) (*Runtime, liberrError) {
	if e := cfg.Validate(); e != nil {
		return nil, e
	}

	rt := &Runtime{
		Config:    cfg,
		Backends:  make(map[string]*lb.Backend),
		Checkers:  make(map[string]*lb.HealthChecker),
		Tables:    make(map[string]*stick.Table),
		Resolvers: make(map[string]*resolver.Resolvers),
		Registry:  statsock.NewRegistry(),
	}

	for _, rc := range cfg.Resolvers {
		res, err := buildResolver(rc, sc)
		if err != nil {
			return nil, err
		}
		rt.Resolvers[rc.Name] = res
	}

	for _, tc := range cfg.StickTables {
		t, err := buildTable(tc)
		if err != nil {
			return nil, err
		}
		rt.Tables[tc.Name] = t
		rt.Registry.AddTable(t)
	}

	for _, bc := range cfg.Backends {
		be, err := buildBackend(bc, rt)
		if err != nil {
			return nil, err
		}
		rt.Backends[bc.Name] = be
		rt.Registry.AddBackend(be)
		rt.Checkers[bc.Name] = lb.NewHealthChecker(be, time.Duration(bc.HealthCheckInterval), bc.HealthCheckPath)
	}

	for _, fc := range cfg.Frontends {
		rt.Registry.AddFrontend(statsock.NewFrontend(fc.Name))
	}

	return rt, nil
}

// liberrError keeps this file's signatures short; errors.Error already
// satisfies the stdlib error interface.
type liberrError = interface {
	error
	HasParent() bool
}

func buildResolver(rc ResolverConfig, sc *sched.Scheduler) (*resolver.Resolvers, liberrError) {
	senders := make([]resolver.Sender, 0, len(rc.Nameservers))
	conns := make([]net.Conn, 0, len(rc.Nameservers))
	for _, ns := range rc.Nameservers {
		addr := ns
		if !strings.Contains(addr, ":") {
			addr = net.JoinHostPort(addr, "53")
		}
		c, err := net.Dial("udp", addr)
		if err != nil {
			return nil, ErrorUnknownResolver.Error(err)
		}
		senders = append(senders, c)
		conns = append(conns, c)
	}

	retry := time.Duration(rc.RetryPeriod)
	if retry <= 0 {
		retry = time.Second
	}
	hold := time.Duration(rc.HoldValid)
	if hold <= 0 {
		hold = 30 * time.Second
	}
	size := rc.CacheSize
	if size <= 0 {
		size = 1024
	}

	res := resolver.New(senders, retry, hold, size)
	if sc != nil {
		sc.Queue(res.Task(), time.Now().Add(retry))
		res.SetWaker(func() { sc.Wakeup(res.Task(), sched.WakeIO) })
	}

	// Component J's UDP response path: one reader goroutine per
	// nameserver socket feeding HandleResponse; the resolver core
	// itself only sends, parses and caches.
	for _, c := range conns {
		go readLoop(c, res)
	}

	return res, nil
}

func readLoop(c net.Conn, res *resolver.Resolvers) {
	buf := make([]byte, dns.DefaultMsgSize)
	for {
		n, err := c.Read(buf)
		if err != nil {
			return
		}
		_ = res.HandleResponse(time.Now(), buf[:n])
	}
}

func buildTable(tc StickTableConfig) (*stick.Table, liberrError) {
	switch tc.Type {
	case "ip", "integer", "string", "binary":
	default:
		return nil, ErrorUnknownKeyType.Error()
	}
	return stick.NewTable(tc.Name, tc.Size, time.Duration(tc.Expire), time.Duration(tc.ConnPeriod), time.Duration(tc.ReqPeriod)), nil
}

func buildBackend(bc BackendConfig, rt *Runtime) (*lb.Backend, liberrError) {
	if len(bc.Servers) == 0 {
		return nil, ErrorNoServers.Error()
	}

	algo, ok := parseAlgorithm(bc.Algorithm)
	if !ok {
		return nil, ErrorUnknownAlgorithm.Error()
	}

	servers := make([]*lb.Server, 0, len(bc.Servers))
	for _, sc := range bc.Servers {
		srv := lb.NewServer(sc.Name, serverAddress(sc), sc.Weight)
		if sc.MinConn > 0 {
			srv.MinConn = sc.MinConn
		}
		if sc.MaxConn > 0 {
			srv.MaxConn = sc.MaxConn
		}
		if sc.Rise > 0 {
			srv.Rise = sc.Rise
		}
		if sc.Fall > 0 {
			srv.Fall = sc.Fall
		}
		srv.SlowStart = time.Duration(sc.SlowStart)
		if sc.Backup {
			srv.SetState(lb.StateBackup, time.Now())
		}
		servers = append(servers, srv)

		if sc.Resolver != "" {
			res, ok := rt.Resolvers[sc.Resolver]
			if !ok {
				return nil, ErrorUnknownResolver.Error()
			}
			armResolution(res, sc, srv)
		}
	}

	be := lb.NewBackend(bc.Name, algo, servers, bc.FullConn)
	if bc.ConnRetries > 0 {
		be.ConnRetries = bc.ConnRetries
	}
	be.ConnTimeout = time.Duration(bc.ConnTimeout)

	if bc.StickTable != "" {
		if _, ok := rt.Tables[bc.StickTable]; !ok {
			return nil, ErrorUnknownStickTable.Error()
		}
	}

	return be, nil
}

// serverAddress builds the initial "host:port" dial target; when
// Address is a bare hostname this is a placeholder until the first
// resolution lands (armResolution below keeps it current).
func serverAddress(sc ServerConfig) string {
	if sc.Port == 0 {
		return sc.Address
	}
	return net.JoinHostPort(sc.Address, itoa(sc.Port))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

// armResolution starts a standing A-record resolution for a
// hostname-addressed server, switching to AAAA on NX/empty answer
// and rewriting the server's live address on success,
// via Server.SetAddr so Backend.connect (reading Server.GetAddr) picks
// up the change on its next dial.
func armResolution(res *resolver.Resolvers, sc ServerConfig, srv *lb.Server) {
	port := itoa(sc.Port)
	var resolve func(qtype uint16)
	resolve = func(qtype uint16) {
		res.Resolve(time.Now(), sc.Address, qtype, 0, 3, 1,
			func(ip net.IP) {
				srv.SetAddr(net.JoinHostPort(ip.String(), port))
			},
			func(err error) {
				if qtype == dns.TypeA {
					resolve(dns.TypeAAAA)
				}
			},
		)
	}
	resolve(dns.TypeA)
}

func parseAlgorithm(s string) (lb.Algorithm, bool) {
	switch s {
	case "", "roundrobin":
		return lb.AlgoRoundRobin, true
	case "leastconn":
		return lb.AlgoLeastConn, true
	case "source":
		return lb.AlgoSource, true
	case "uri":
		return lb.AlgoURI, true
	case "hash":
		return lb.AlgoHash, true
	}
	return 0, false
}
