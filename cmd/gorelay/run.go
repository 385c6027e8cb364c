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

package main

import (
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cloudflare/tableflip"
	spfcbr "github.com/spf13/cobra"

	"github.com/nabbar/gorelay/adminapi"
	"github.com/nabbar/gorelay/buffer"
	"github.com/nabbar/gorelay/engine"
	liblog "github.com/nabbar/gorelay/logger"
	"github.com/nabbar/gorelay/proxycfg"
	"github.com/nabbar/gorelay/sched"
	"github.com/nabbar/gorelay/statsock"
)

// newRunCommand wires `gorelay run`: load the configuration, build the
// runtime (backends, stick-tables, resolvers, stats registry), bind
// every frontend through a tableflip.Upgrader so SIGHUP/SIGUSR2
// re-exec with zero listener downtime, and drive the scheduler loop
// until a termination signal lands.
func newRunCommand(cfgFile *string) *spfcbr.Command {
	var pidFile string

	cmd := &spfcbr.Command{
		Use:   "run",
		Short: "Load a configuration and run the proxy until a termination signal",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			return runProxy(*cfgFile, pidFile)
		},
	}
	cmd.Flags().StringVar(&pidFile, "pid-file", "", "write the worker pid to this file (tableflip.Options.PIDFile)")
	return cmd
}

func runProxy(cfgFile, pidFile string) error {
	log := liblog.GetDefault
	entry := func(lvl liblog.Level, format string, args ...interface{}) {
		if l := log(); l != nil {
			l.Entry(lvl, format, args...).Log()
		}
	}

	cfg, err := proxycfg.Load(cfgFile)
	if err != nil {
		return ErrorConfigLoad.Error(err)
	}

	upg, uerr := tableflip.New(tableflip.Options{PIDFile: pidFile})
	if uerr != nil {
		return ErrorListenerBind.Error(uerr)
	}
	defer upg.Stop()

	sc := sched.NewScheduler(4096)
	sessions := engine.NewSessions()
	reg := engine.BuildRegistry(sessions)
	pool := &enginePool{
		pool:     buffer.NewPool(16*1024, 4096),
		sc:       sc,
		reg:      reg,
		sessions: sessions,
	}

	rt, berr := proxycfg.Build(cfg, sc, log)
	if berr != nil {
		return ErrorConfigBuild.Error(berr)
	}

	frontends := make([]*frontend, 0, len(cfg.Frontends))
	for _, fc := range cfg.Frontends {
		be, ok := rt.Backends[fc.Backend]
		if !ok {
			return ErrorConfigBuild.Error(nil)
		}
		fe, _ := rt.Registry.Frontend(fc.Name)

		listen := func(network, addr string) (net.Listener, error) {
			return upg.Listen(network, addr)
		}
		fr, ferr := newFrontend(fc, be, fe, pool, log, listen)
		if ferr != nil {
			return ferr
		}
		for _, bc := range cfg.Backends {
			if bc.Name == fc.Backend && bc.StickTable != "" {
				fr.table = rt.Tables[bc.StickTable]
			}
		}
		frontends = append(frontends, fr)
	}

	var statsSrv *statsock.Server
	if cfg.Global.StatsSocket != "" {
		network, addr := statsListenTarget(cfg.Global.StatsSocket)
		ln, serr := upg.Listen(network, addr)
		if serr != nil {
			return ErrorListenerBind.Error(serr)
		}
		disp := statsock.NewDispatcher(rt.Registry)
		statsSrv = statsock.NewServer(ln, disp, nil)
		statsSrv.Log = log
	}

	var adminAPI *adminapi.API
	if cfg.Global.AdminAPIListen != "" {
		adminAPI = adminapi.New(rt.Registry)
	}

	var wg sync.WaitGroup
	for _, fr := range frontends {
		wg.Add(1)
		go func(fr *frontend) {
			defer wg.Done()
			if serr := fr.serve(); serr != nil {
				entry(liblog.ErrorLevel, "frontend %q accept loop: %s", fr.cfg.Name, serr.Error())
			}
		}(fr)
	}
	if statsSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = statsSrv.Serve()
		}()
	}
	if adminAPI != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = adminAPI.Serve(cfg.Global.AdminAPIListen)
		}()
	}
	for _, hc := range rt.Checkers {
		go hc.Run()
	}

	schedDone := make(chan struct{})
	go runScheduler(sc, schedDone)

	if rerr := upg.Ready(); rerr != nil {
		return ErrorServe.Error(rerr)
	}
	entry(liblog.InfoLevel, "gorelay worker pid=%d ready: %d frontend(s), %d backend(s)", os.Getpid(), len(frontends), len(rt.Backends))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTTOU, syscall.SIGTTIN)

	for {
		select {
		case <-upg.Exit():
			// A newer worker took over (tableflip finished the
			// SIGHUP/SIGUSR2 handoff); drain and exit cleanly.
			close(schedDone)
			stopAll(frontends, statsSrv, rt)
			wg.Wait()
			return nil

		case s := <-sig:
			switch s {
			case syscall.SIGHUP, syscall.SIGUSR2:
				// SIGHUP reloads, SIGUSR2 re-execs; tableflip
				// folds both into one zero-downtime Upgrade.
				entry(liblog.InfoLevel, "%s received: starting tableflip upgrade", s)
				if uerr := upg.Upgrade(); uerr != nil {
					entry(liblog.ErrorLevel, "upgrade failed: %s", uerr.Error())
				}
			case syscall.SIGTTOU:
				setFrontendsDisabled(frontends, true)
				entry(liblog.InfoLevel, "SIGTTOU received: frontends paused")
			case syscall.SIGTTIN:
				setFrontendsDisabled(frontends, false)
				entry(liblog.InfoLevel, "SIGTTIN received: frontends resumed")
			case syscall.SIGUSR1:
				entry(liblog.InfoLevel, "SIGUSR1 received: soft-stop, draining")
				close(schedDone)
				stopAll(frontends, statsSrv, rt)
				wg.Wait()
				return nil
			case syscall.SIGINT, syscall.SIGTERM:
				entry(liblog.InfoLevel, "%s received: shutting down", s)
				close(schedDone)
				stopAll(frontends, statsSrv, rt)
				wg.Wait()
				return nil
			}
		}
	}
}

// runScheduler repeatedly drives sc.RunPass until done is closed,
// sleeping only long enough to reach the earliest pending task
// deadline RunPass reported.
func runScheduler(sc *sched.Scheduler, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		next := sc.RunPass(time.Now())
		wait := 10 * time.Millisecond
		if !next.IsZero() {
			if d := time.Until(next); d > 0 && d < wait {
				wait = d
			}
		}
		t := time.NewTimer(wait)
		select {
		case <-done:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func setFrontendsDisabled(frontends []*frontend, v bool) {
	for _, fr := range frontends {
		if fr.fe != nil {
			fr.fe.SetDisabled(v)
		}
	}
}

// stopAll closes every frontend listener, the stats socket, and all
// running health checkers. Callers close schedDone themselves first to
// stop the scheduler tick loop.
func stopAll(frontends []*frontend, statsSrv *statsock.Server, rt *proxycfg.Runtime) {
	for _, fr := range frontends {
		_ = fr.close()
	}
	if statsSrv != nil {
		_ = statsSrv.Close()
	}
	for _, hc := range rt.Checkers {
		hc.Stop()
	}
}

// statsListenTarget splits the configured stats-socket address into a
// net.Listen network/address pair: a "tcp:" prefix selects TCP,
// anything else is treated as a unix socket path (HAProxy's own
// default stats-socket transport).
func statsListenTarget(addr string) (network, target string) {
	if strings.HasPrefix(addr, "tcp:") {
		return "tcp", strings.TrimPrefix(addr, "tcp:")
	}
	return "unix", addr
}
