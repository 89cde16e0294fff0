package chart

const tmplChart = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Context Window Usage - {{.SessionID}}</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.0/dist/chart.umd.min.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chartjs-adapter-date-fns@3.0.0/dist/chartjs-adapter-date-fns.bundle.min.js"></script>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background:linear-gradient(135deg,#0e1b4d 0%,#6b2bbf 60%,#a21caf 100%);color:#e5e7eb;padding:20px;font-size:14px}
.header{text-align:center;margin-bottom:20px}
.header h1{font-size:28px;font-weight:700;margin-bottom:8px}
.header p{color:#9ca3af}
.stats{display:grid;grid-template-columns:repeat(auto-fit,minmax(110px,1fr));gap:10px;margin-bottom:20px}
.stat-card{background:rgba(20,24,45,.9);border-radius:12px;padding:12px;box-shadow:0 6px 18px rgba(0,0,0,.35)}
.stat-title{font-size:10px;color:#9ca3af;letter-spacing:.08em;text-transform:uppercase;margin-bottom:4px}
.stat-value{font-size:20px;font-weight:700;color:#60a5fa}
.layout{display:grid;grid-template-columns:3fr 1fr;gap:20px;align-items:start}
.charts{display:flex;flex-direction:column;gap:20px}
.chart-section{background:rgba(20,24,45,.9);border-radius:12px;padding:20px;box-shadow:0 6px 18px rgba(0,0,0,.35)}
.chart-title{font-size:16px;font-weight:600;margin-bottom:15px;text-align:center}
.chart-wrap{position:relative;height:320px}
.messages{background:rgba(20,24,45,.9);border-radius:12px;padding:20px;max-height:740px;overflow-y:auto;display:flex;flex-direction:column;gap:12px}
.messages h2{font-size:16px;font-weight:600;border-bottom:1px solid rgba(156,163,175,.2);padding-bottom:10px}
.card{background:rgba(30,34,55,.7);border:1px solid rgba(156,163,175,.2);border-radius:8px;padding:12px}
.card-head{display:flex;justify-content:space-between;font-size:11px;color:#9ca3af;text-transform:uppercase;letter-spacing:.05em;margin-bottom:8px}
.card-head .pos{color:#60a5fa}
.card-text{font-size:13px;line-height:1.5;white-space:pre-wrap;word-wrap:break-word;margin-bottom:8px}
.card-foot{display:flex;justify-content:space-between;font-size:11px;color:#9ca3af;border-top:1px solid rgba(156,163,175,.2);padding-top:8px}
.card-foot .time{color:#60a5fa;font-family:monospace}
@media(max-width:1200px){.layout{grid-template-columns:1fr}}
</style>
</head>
<body>
<div class="header">
<h1>Context Window Usage Over Time</h1>
<p>Session: {{.SessionID}}{{if .DateRange}} | {{.DateRange}}{{end}}</p>
</div>
<div class="stats">
<div class="stat-card"><div class="stat-title">Token Events</div><div class="stat-value">{{.EventCount}}</div></div>
<div class="stat-card"><div class="stat-title">User Messages</div><div class="stat-value">{{.MessageCount}}</div></div>
<div class="stat-card"><div class="stat-title">Total Records</div><div class="stat-value">{{.LineCount}}</div></div>
<div class="stat-card"><div class="stat-title">Final Context</div><div class="stat-value">{{.FinalContext}}</div></div>
<div class="stat-card"><div class="stat-title">Total</div><div class="stat-value">{{.FinalTotal}}</div></div>
<div class="stat-card"><div class="stat-title">Model CW</div><div class="stat-value">{{.ContextWindow}}</div></div>
<div class="stat-card"><div class="stat-title">Context Usage</div><div class="stat-value">{{.UsagePercent}}</div></div>
</div>
<div class="layout">
<div class="charts">
<div class="chart-section">
<h3 class="chart-title">Context Window Over Time</h3>
<div class="chart-wrap"><canvas id="contextChart"></canvas></div>
</div>
<div class="chart-section">
<h3 class="chart-title">Cumulative Total Tokens</h3>
<div class="chart-wrap"><canvas id="totalChart"></canvas></div>
</div>
</div>
<div class="messages">
<h2>User Messages</h2>
{{range .Cards}}<div class="card">
<div class="card-head"><span>User Message #{{.Sequence}} ({{.Duration}} {{.Date}})</span><span class="pos">Record #{{.RawPosition}}</span></div>
<div class="card-text">{{.Text}}</div>
<div class="card-foot"><span>Context: {{.Context}} ({{.Cumulative}}) | Cost: {{.Cost}}</span><span class="time">{{.Time}}</span></div>
</div>
{{end}}</div>
</div>
<script>
const CONTEXT_DATA = {{.ContextData}};
const TOTAL_DATA = {{.TotalData}};
const MSG_CONTEXT = {{.MsgContext}};
const MSG_TOTAL = {{.MsgTotal}};
const WINDOW_LIMIT = {{.WindowLimit}};
const MESSAGE_BASED = {{.MessageBased}};

function xAxis() {
  if (MESSAGE_BASED) {
    return {type: 'linear', title: {display: true, text: 'Record position', color: '#9ca3af'},
      ticks: {color: '#9ca3af'}, grid: {color: 'rgba(156,163,175,0.1)'}};
  }
  return {type: 'time', time: {unit: 'minute', displayFormats: {minute: 'HH:mm', hour: 'HH:mm'}},
    title: {display: true, text: 'Time', color: '#9ca3af'},
    ticks: {color: '#9ca3af'}, grid: {color: 'rgba(156,163,175,0.1)'}};
}

function yAxis(label) {
  return {beginAtZero: true, title: {display: true, text: label, color: '#9ca3af'},
    ticks: {color: '#9ca3af', callback: v => v.toLocaleString()},
    grid: {color: 'rgba(156,163,175,0.1)'}};
}

function lineDataset(label, data, color, fill) {
  return {label: label, data: data, parsing: false, borderColor: color,
    backgroundColor: fill, tension: 0.3, pointRadius: 0, borderWidth: 2, fill: true, order: 2};
}

function scatterDataset(data) {
  return {label: 'User Messages', data: data, parsing: false, type: 'scatter',
    backgroundColor: '#fbbf24', borderColor: '#f59e0b', borderWidth: 2,
    pointRadius: 8, pointStyle: 'star', order: 1};
}

const commonOptions = (yLabel) => ({responsive: true, maintainAspectRatio: false,
  scales: {x: xAxis(), y: yAxis(yLabel)},
  plugins: {legend: {position: 'top', labels: {color: '#e5e7eb', font: {size: 11}}}}});

const contextDatasets = [
  lineDataset('Context Window Tokens', CONTEXT_DATA, '#60a5fa', 'rgba(96,165,250,0.15)'),
  scatterDataset(MSG_CONTEXT)
];
if (WINDOW_LIMIT > 0 && CONTEXT_DATA.length > 0) {
  contextDatasets.push({label: 'Model Context Window Limit',
    data: [{x: CONTEXT_DATA[0].x, y: WINDOW_LIMIT}, {x: CONTEXT_DATA[CONTEXT_DATA.length - 1].x, y: WINDOW_LIMIT}],
    parsing: false, borderColor: '#ef4444', borderWidth: 2, borderDash: [10, 5],
    pointRadius: 0, fill: false, order: 3});
}

new Chart(document.getElementById('contextChart'), {
  type: 'line', data: {datasets: contextDatasets}, options: commonOptions('Tokens')});

new Chart(document.getElementById('totalChart'), {
  type: 'line', data: {datasets: [
    lineDataset('Cumulative Total Tokens', TOTAL_DATA, '#8b5cf6', 'rgba(139,92,246,0.15)'),
    scatterDataset(MSG_TOTAL)
  ]}, options: commonOptions('Total Tokens')});
</script>
</body>
</html>
`
