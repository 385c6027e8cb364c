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

package statsock

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Registry's counters to Prometheus, mirroring the
// same fields WriteCSV renders so `show stat` and `/metrics` never
// disagree. Talks to github.com/prometheus/client_golang directly, no
// wrapper layer in between.
type Collector struct {
	reg *Registry

	frontendSessCur  *prometheus.Desc
	frontendSessTot  *prometheus.Desc
	frontendBytesIn  *prometheus.Desc
	frontendBytesOut *prometheus.Desc
	frontendErrors   *prometheus.Desc

	backendQueueCur *prometheus.Desc
	backendConnCur  *prometheus.Desc

	serverSessCur    *prometheus.Desc
	serverWeight     *prometheus.Desc
	serverUp         *prometheus.Desc
	serverConnectErr *prometheus.Desc
	serverRetries    *prometheus.Desc
	serverRedispatch *prometheus.Desc
	serverServed     *prometheus.Desc
}

// NewCollector builds a Collector reading live data from reg on every
// Collect call (no caching: a scrape always reflects the current
// Registry state, same as a `show stat` command issued at that instant).
func NewCollector(reg *Registry) *Collector {
	return &Collector{
		reg: reg,
		frontendSessCur:  desc("gorelay_frontend_sessions_current", "Current sessions on a frontend.", "frontend"),
		frontendSessTot:  desc("gorelay_frontend_sessions_total", "Total sessions accepted by a frontend.", "frontend"),
		frontendBytesIn:  desc("gorelay_frontend_bytes_in_total", "Bytes received by a frontend.", "frontend"),
		frontendBytesOut: desc("gorelay_frontend_bytes_out_total", "Bytes sent by a frontend.", "frontend"),
		frontendErrors:   desc("gorelay_frontend_request_errors_total", "Request errors on a frontend.", "frontend"),
		backendQueueCur:  desc("gorelay_backend_queue_current", "Pending connections queued on a backend.", "backend"),
		backendConnCur:   desc("gorelay_backend_connections_current", "Established connections on a backend.", "backend"),
		serverSessCur:    desc("gorelay_server_sessions_current", "Current sessions on a server.", "backend", "server"),
		serverWeight:     desc("gorelay_server_weight", "Effective weight of a server.", "backend", "server"),
		serverUp:         desc("gorelay_server_up", "1 if the server is healthy, 0 otherwise.", "backend", "server"),
		serverConnectErr: desc("gorelay_server_connect_errors_total", "Connect errors on a server.", "backend", "server"),
		serverRetries:    desc("gorelay_server_retries_total", "Connect retries on a server.", "backend", "server"),
		serverRedispatch: desc("gorelay_server_redispatch_total", "Redispatches away from a server.", "backend", "server"),
		serverServed:     desc("gorelay_server_served_total", "Connections served by a server.", "backend", "server"),
	}
}

func desc(name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(name, help, labels, nil)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.frontendSessCur, c.frontendSessTot, c.frontendBytesIn, c.frontendBytesOut, c.frontendErrors,
		c.backendQueueCur, c.backendConnCur,
		c.serverSessCur, c.serverWeight, c.serverUp, c.serverConnectErr, c.serverRetries, c.serverRedispatch, c.serverServed,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.reg.Frontends() {
		ch <- prometheus.MustNewConstMetric(c.frontendSessCur, prometheus.GaugeValue, float64(f.CurSess), f.Name)
		ch <- prometheus.MustNewConstMetric(c.frontendSessTot, prometheus.CounterValue, float64(f.TotSess), f.Name)
		ch <- prometheus.MustNewConstMetric(c.frontendBytesIn, prometheus.CounterValue, float64(f.BytesIn), f.Name)
		ch <- prometheus.MustNewConstMetric(c.frontendBytesOut, prometheus.CounterValue, float64(f.BytesOut), f.Name)
		ch <- prometheus.MustNewConstMetric(c.frontendErrors, prometheus.CounterValue, float64(f.ReqErrors), f.Name)
	}

	for _, b := range c.reg.Backends() {
		ch <- prometheus.MustNewConstMetric(c.backendQueueCur, prometheus.GaugeValue, float64(b.TotPend()), b.Name)
		ch <- prometheus.MustNewConstMetric(c.backendConnCur, prometheus.GaugeValue, float64(b.BeConn()), b.Name)

		for _, srv := range b.Servers {
			up := 0.0
			if srv.Healthy() {
				up = 1.0
			}
			ch <- prometheus.MustNewConstMetric(c.serverSessCur, prometheus.GaugeValue, float64(srv.CurSess()), b.Name, srv.Name)
			ch <- prometheus.MustNewConstMetric(c.serverWeight, prometheus.GaugeValue, float64(srv.Weight), b.Name, srv.Name)
			ch <- prometheus.MustNewConstMetric(c.serverUp, prometheus.GaugeValue, up, b.Name, srv.Name)
			ch <- prometheus.MustNewConstMetric(c.serverConnectErr, prometheus.CounterValue, float64(srv.Counters.ConnectErr), b.Name, srv.Name)
			ch <- prometheus.MustNewConstMetric(c.serverRetries, prometheus.CounterValue, float64(srv.Counters.Retries), b.Name, srv.Name)
			ch <- prometheus.MustNewConstMetric(c.serverRedispatch, prometheus.CounterValue, float64(srv.Counters.Redispatch), b.Name, srv.Name)
			ch <- prometheus.MustNewConstMetric(c.serverServed, prometheus.CounterValue, float64(srv.Counters.Served), b.Name, srv.Name)
		}
	}
}
