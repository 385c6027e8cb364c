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

import "github.com/nabbar/gorelay/lb"

func backendView(b *lb.Backend) BackendView {
	bv := BackendView{Name: b.Name, TotPend: b.TotPend(), BeConn: b.BeConn()}
	for _, s := range b.Servers {
		bv.Servers = append(bv.Servers, ServerView{
			Name: s.Name, Addr: s.Addr, State: s.State().String(),
			Weight: s.Weight, CurSess: s.CurSess(),
			Served: s.Counters.Served, Retries: s.Counters.Retries,
		})
	}
	return bv
}

// FrontendView is the JSON shape of one frontend row, mirroring the
// fields statsock's CSV FRONTEND row reports.
type FrontendView struct {
	Name       string `json:"name"`
	Disabled   bool   `json:"disabled"`
	CurSess    int64  `json:"cur_sess"`
	MaxSess    int64  `json:"max_sess"`
	TotSess    int64  `json:"tot_sess"`
	BytesIn    int64  `json:"bytes_in"`
	BytesOut   int64  `json:"bytes_out"`
	ReqErrors  int64  `json:"req_errors"`
	DeniedReq  int64  `json:"denied_req"`
	DeniedResp int64  `json:"denied_resp"`
}

// ServerView is the JSON shape of one server row.
type ServerView struct {
	Name    string `json:"name"`
	Addr    string `json:"addr"`
	State   string `json:"state"`
	Weight  int    `json:"weight"`
	CurSess int64  `json:"cur_sess"`
	Served  int64  `json:"served"`
	Retries int64  `json:"retries"`
}

// BackendView is one backend plus its servers.
type BackendView struct {
	Name     string       `json:"name"`
	TotPend  int64        `json:"tot_pend"`
	BeConn   int          `json:"be_conn"`
	Servers  []ServerView `json:"servers"`
}

// TableView summarizes one stick table without dumping every entry.
type TableView struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
}

// StatsView is the full `/stats.json` payload.
type StatsView struct {
	Frontends []FrontendView `json:"frontends"`
	Backends  []BackendView  `json:"backends"`
	Tables    []TableView    `json:"tables"`
}
