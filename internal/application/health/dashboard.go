package health

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// RenderDashboardHTML renders the status page served at GET /api/health/dashboard.
func RenderDashboardHTML(r Report) string {
	headline := "All Systems Operational"
	if r.Status != "ok" {
		headline = "System Issues Detected"
	}

	names := make([]string, 0, len(r.Dependencies))
	for name := range r.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	var deps strings.Builder
	for _, name := range names {
		d := r.Dependencies[name]
		class := "ok"
		if d.Status != "connected" {
			class = "err"
		}
		ping := "--"
		if d.PingMs != nil {
			ping = fmt.Sprint(*d.PingMs)
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span class="pill %s">%s · %s ms</span></div>`,
			html.EscapeString(name), class, html.EscapeString(d.Status), ping)
	}

	last := "-"
	if m, ok := r.Traffic.LastRequest.(map[string]interface{}); ok {
		last = html.EscapeString(fmt.Sprintf("%v %v", m["method"], m["path"]))
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>LifeLines · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="15">
  <style>
    :root { --blue: #0047AB; --green: #10b981; --bg: #f8fafc; --muted: #64748b; }
    body { background: var(--bg); font-family: system-ui, sans-serif; margin: 0; display: flex; justify-content: center; padding: 40px 16px; color: #0f172a; }
    .card { background: white; border-radius: 16px; box-shadow: 0 20px 60px -20px rgba(0,71,171,.2); max-width: 900px; width: 100%; }
    h1 { margin: 0; padding: 28px 32px 8px; font-size: 32px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 24px 32px; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: var(--muted); margin-bottom: 14px; }
    .big { font-size: 36px; font-weight: 900; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; font-weight: 600; }
    .pill { padding: 3px 10px; border-radius: 8px; font-size: 11px; }
    .ok { background: rgba(16,185,129,.12); color: #059669; }
    .err { background: rgba(239,68,68,.12); color: #dc2626; }
    .foot { padding: 14px 32px; font-family: monospace; font-size: 13px; border-top: 1px solid #e2e8f0; color: var(--muted); }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="card">
    <h1>` + headline + `</h1>
    <div class="grid">
      <div class="col">
        <div class="label">Traffic</div>
        <div class="big">` + fmt.Sprint(r.Traffic.TotalRequests) + `</div>
        <div class="row"><span>Successful</span><span>` + fmt.Sprint(r.Traffic.SuccessCount) + `</span></div>
        <div class="row"><span>Failed</span><span>` + fmt.Sprint(r.Traffic.FailedCount) + `</span></div>
        <div class="row"><span>Success Rate</span><span>` + r.Traffic.SuccessRate + `%</span></div>
        <div class="row"><span>Avg Latency</span><span>` + r.Traffic.AvgResponseTime + ` ms</span></div>
      </div>
      <div class="col">
        <div class="label">Runtime</div>
        <div class="big">` + fmt.Sprintf("%dh %dm", r.Runtime.UptimeSeconds/3600, r.Runtime.UptimeSeconds%3600/60) + `</div>
        <div class="row"><span>Heap Used</span><span>` + fmt.Sprint(r.Runtime.Memory.HeapUsed) + ` MB</span></div>
        <div class="row"><span>Goroutines</span><span>` + fmt.Sprint(r.Runtime.Goroutines) + `</span></div>
        <div class="row"><span>Platform</span><span>` + html.EscapeString(r.Runtime.Platform) + `</span></div>
      </div>
      <div class="col">
        <div class="label">Dependencies</div>
        ` + deps.String() + `
      </div>
    </div>
    <div class="foot">LAST INBOUND · ` + last + `</div>
  </div>
</body>
</html>`
}
