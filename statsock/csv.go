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
	"strconv"
	"strings"
)

// csvColumns is the fixed 62-column stats schema beginning
// pxname,svname,qcur,qmax,scur,smax,slim,stot,bin,bout,dreq,dresp,ereq,
// econ,eresp,…. Columns this implementation has no source data for are
// still emitted (empty) so the column count and position stay fixed for
// any client parsing by index, the way every real consumer of this
// format does.
var csvColumns = []string{
	"pxname", "svname", "qcur", "qmax", "scur", "smax", "slim", "stot",
	"bin", "bout", "dreq", "dresp", "ereq", "econ", "eresp",
	"wretr", "wredis", "status", "weight", "act", "bck",
	"chkfail", "chkdown", "lastchg", "downtime", "qlimit", "pid", "iid",
	"sid", "throttle", "lbtot", "tracked", "type", "rate", "rate_lim",
	"rate_max", "check_status", "check_code", "check_duration",
	"hrsp_1xx", "hrsp_2xx", "hrsp_3xx", "hrsp_4xx", "hrsp_5xx", "hrsp_other",
	"hanafail", "req_rate", "req_rate_max", "req_tot", "cli_abrt", "srv_abrt",
	"comp_in", "comp_out", "comp_byp", "comp_rsp", "lastsess", "last_chk",
	"last_agt", "qtime", "ctime", "rtime", "ttime",
}

const (
	rowTypeFrontend = 0
	rowTypeBackend  = 1
	rowTypeServer   = 2
	rowTypeSocket   = 3
)

// row builds one CSV data line, filling only the columns this proxy
// actually tracks and leaving the rest blank, matching the positional
// (not named) contract real stats-CSV consumers rely on.
func row(fields map[string]string) string {
	out := make([]string, len(csvColumns))
	for i, c := range csvColumns {
		out[i] = fields[c]
	}
	return strings.Join(out, ",")
}

func i64(v int64) string { return strconv.FormatInt(v, 10) }
func i(v int) string     { return strconv.Itoa(v) }

// WriteCSV renders the `show stat` / CSV-export dump: a header line,
// one FRONTEND row per registered Frontend, one BACKEND row plus one
// row per Server for each registered Backend.
func WriteCSV(reg *Registry) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(strings.Join(csvColumns, ","))
	sb.WriteString("\n")

	for _, f := range reg.Frontends() {
		status := "OPEN"
		if f.Disabled() {
			status = "STOP"
		}
		sb.WriteString(row(map[string]string{
			"pxname": f.Name, "svname": "FRONTEND",
			"scur": i64(f.CurSess), "smax": i64(f.MaxSess), "stot": i64(f.TotSess),
			"bin": i64(f.BytesIn), "bout": i64(f.BytesOut),
			"ereq": i64(f.ReqErrors), "dreq": i64(f.DeniedReq), "dresp": i64(f.DeniedResp),
			"status": status, "type": i(rowTypeFrontend),
		}))
		sb.WriteString("\n")
	}

	for _, b := range reg.Backends() {
		var totWeight, nbAct, nbBck int
		for _, srv := range b.Servers {
			totWeight += srv.Weight
			if srv.Healthy() {
				nbAct++
			} else {
				nbBck++
			}
			sb.WriteString(row(map[string]string{
				"pxname": b.Name, "svname": srv.Name,
				"scur": i64(srv.CurSess()), "weight": i(srv.Weight),
				"status": srv.State().String(), "type": i(rowTypeServer),
				"chkfail": i64(srv.Counters.ConnectErr),
				"wretr":   i64(srv.Counters.Retries),
				"wredis":  i64(srv.Counters.Redispatch),
				"lbtot":   i64(srv.Counters.Served),
			}))
			sb.WriteString("\n")
		}
		sb.WriteString(row(map[string]string{
			"pxname": b.Name, "svname": "BACKEND",
			"scur": i(b.BeConn()), "qcur": i64(b.TotPend()),
			"weight": i(totWeight), "act": i(nbAct), "bck": i(nbBck),
			"type": i(rowTypeBackend),
		}))
		sb.WriteString("\n")
	}

	return sb.String()
}
