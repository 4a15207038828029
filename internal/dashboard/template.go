package dashboard

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
<title>Over 2.5 + BTTS Predictor</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #fafafa; }
h1 { font-size: 1.4em; }
.metrics { display: flex; gap: 2em; margin-bottom: 1.5em; }
.metric { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 1em 1.5em; }
.metric .label { color: #666; font-size: 0.8em; }
.metric .value { font-size: 1.5em; font-weight: bold; }
table { border-collapse: collapse; width: 100%; background: #fff; }
th, td { border: 1px solid #ddd; padding: 0.5em 0.8em; text-align: left; }
th { background: #f0f0f0; }
tr.high td { background: #e4f7e4; }
tr.medium td { background: #fdf3df; }
.filters { margin-bottom: 1em; }
.filters input { width: 4.5em; }
.empty { color: #888; padding: 2em 0; }
</style>
</head>
<body>
<h1>Real-Time Betting System &mdash; Over 2.5 + BTTS</h1>

<div class="metrics">
  <div class="metric"><div class="label">Active predictions</div><div class="value">{{.ActiveCount}}</div></div>
  <div class="metric"><div class="label">Accuracy ({{if .Accuracy}}7 days, n={{.Accuracy.Total}}{{else}}7 days{{end}})</div>
    <div class="value">{{if .Accuracy}}{{printf "%.1f%%" .AccuracyPct}}{{else}}N/A{{end}}</div></div>
  <div class="metric"><div class="label">Last update</div><div class="value">{{.UpdatedAt}}</div></div>
</div>

<form class="filters" method="get">
  Min Over 2.5 prob: <input name="min_prob" value="{{printf "%.2f" .MinProb}}">
  Min BTTS prob: <input name="min_btts" value="{{printf "%.2f" .MinBTTS}}">
  <button type="submit">Apply</button>
  <a href="/export.csv?min_prob={{printf "%.2f" .MinProb}}">Download CSV</a>
</form>

{{if .Predictions}}
<table>
<tr><th>Home</th><th>Away</th><th>Kickoff (UTC)</th><th>Over 2.5 %</th><th>BTTS %</th><th>Confidence</th><th>xG</th><th>League</th></tr>
{{range .Predictions}}
<tr class="{{.RowClass}}">
  <td>{{.HomeTeam}}</td>
  <td>{{.AwayTeam}}</td>
  <td>{{.Kickoff}}</td>
  <td>{{printf "%.1f" .Over25Pct}}</td>
  <td>{{printf "%.1f" .BTTSPct}}</td>
  <td>{{.Confidence}}</td>
  <td>{{printf "%.2f" .ExpectedGoals}}</td>
  <td>{{.League}}</td>
</tr>
{{end}}
</table>
{{else}}
<p class="empty">No predictions match the current filters. Lower the thresholds or wait for new fixtures.</p>
{{end}}
</body>
</html>`
