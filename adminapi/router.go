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

package adminapi

import (
	"net/http"
	"time"

	ginsdk "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	liblog "github.com/nabbar/gorelay/logger"
	"github.com/nabbar/gorelay/statsock"
)

// API wires a Registry into a read-only gin.Engine: /health for a
// trivial liveness probe, /stats.json for the full StatsView,
// /backends/:name for one backend's detail, and /metrics for the
// statsock.Collector's Prometheus exposition. All routes are GET-only:
// mutation stays on the stats socket, gated by Level.
type API struct {
	Reg *statsock.Registry
	Log liblog.FuncLog

	engine *ginsdk.Engine
}

func New(reg *statsock.Registry) *API {
	a := &API{Reg: reg}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(statsock.NewCollector(reg))

	a.engine = ginsdk.New()
	a.engine.Use(ginsdk.Recovery())
	a.engine.GET("/health", a.handleHealth)
	a.engine.GET("/stats.json", a.handleStats)
	a.engine.GET("/backends/:name", a.handleBackend)
	a.engine.GET("/metrics", ginsdk.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))
	return a
}

func (a *API) Engine() *ginsdk.Engine { return a.engine }

func (a *API) logEntry(c *ginsdk.Context, lvl liblog.Level, format string, args ...interface{}) {
	if a.Log == nil {
		return
	}
	l := a.Log()
	if l == nil {
		return
	}
	l.Entry(lvl, format, args...).SetGinContext(c).Log()
}

func (a *API) handleHealth(c *ginsdk.Context) {
	c.JSON(http.StatusOK, ginsdk.H{"status": "ok"})
}

func (a *API) handleStats(c *ginsdk.Context) {
	view := StatsView{}

	for _, f := range a.Reg.Frontends() {
		view.Frontends = append(view.Frontends, FrontendView{
			Name: f.Name, Disabled: f.Disabled(),
			CurSess: f.CurSess, MaxSess: f.MaxSess, TotSess: f.TotSess,
			BytesIn: f.BytesIn, BytesOut: f.BytesOut,
			ReqErrors: f.ReqErrors, DeniedReq: f.DeniedReq, DeniedResp: f.DeniedResp,
		})
	}

	for _, b := range a.Reg.Backends() {
		view.Backends = append(view.Backends, backendView(b))
	}

	c.JSON(http.StatusOK, view)
}

func (a *API) handleBackend(c *ginsdk.Context) {
	name := c.Param("name")
	b, ok := a.Reg.Backend(name)
	if !ok {
		a.logEntry(c, liblog.InfoLevel, "admin API: backend %q not found", name)
		c.JSON(http.StatusNotFound, ginsdk.H{"error": ErrorNotFound.Error().Error()})
		return
	}
	c.JSON(http.StatusOK, backendView(b))
}

// Serve runs a plain http.Server over the API's gin.Engine until ctx
// (via http.Server.Shutdown from the caller) or the listener fails.
func (a *API) Serve(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return ErrorServeFailed.Error()
	}
	return nil
}
