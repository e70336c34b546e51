package server

// Single-file chat page. The API does the work; this is just enough UI to
// ask questions and read the answers without a terminal.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>AI-Driven Business Insights</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
h1 { font-size: 1.4rem; }
#prompts button { margin: 0 0.4rem 0.4rem 0; padding: 0.4rem 0.8rem; cursor: pointer; }
#log { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; min-height: 240px; }
.user { color: #333; font-weight: bold; margin-top: 1rem; }
.error { color: #b00020; }
.note { color: #b00020; font-style: italic; }
pre { background: #f6f6f6; padding: 0.5rem; overflow-x: auto; }
table { border-collapse: collapse; margin: 0.5rem 0; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.6rem; text-align: left; }
form { display: flex; gap: 0.5rem; margin-top: 1rem; }
input { flex: 1; padding: 0.5rem; }
</style>
</head>
<body>
<h1>AI-Driven Business Insights</h1>
<p><em>Ask questions about your data and get insights!</em></p>
<div id="prompts"></div>
<div id="log"></div>
<form id="form">
<input id="question" placeholder="Enter your query:" autocomplete="off">
<button type="submit">Ask</button>
</form>
<script>
const log = document.getElementById('log');

function add(html, cls) {
  const div = document.createElement('div');
  if (cls) div.className = cls;
  div.innerHTML = html;
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
}

function esc(s) {
  const d = document.createElement('div');
  d.textContent = s == null ? '' : String(s);
  return d.innerHTML;
}

function renderRows(cols, rows) {
  let html = '<table><tr>';
  cols.forEach(c => html += '<th>' + esc(c) + '</th>');
  html += '</tr>';
  rows.forEach(r => {
    html += '<tr>';
    cols.forEach(c => html += '<td>' + esc(r[c]) + '</td>');
    html += '</tr>';
  });
  return html + '</table>';
}

function renderResponse(resp) {
  if (resp.response_type === 'analysis') {
    (resp.insights || []).forEach(ins => {
      let html = '<p><b>Insight:</b> ' + esc(ins.insight) + '</p>';
      if (ins.business_value) html += '<p><b>Business value:</b> ' + esc(ins.business_value) + '</p>';
      if (ins.sql_query) html += '<pre>' + esc(ins.sql_query) + '</pre>';
      if (ins.note) html += '<p class="note">' + esc(ins.note) + '</p>';
      else if (ins.columns && ins.columns.length) html += renderRows(ins.columns, ins.rows || []);
      add(html);
    });
  } else if (resp.response_type === 'info') {
    add('<p>' + esc(resp.answer) + '</p>');
  } else {
    add('<p>' + esc(resp.answer) + '</p>', 'error');
  }
}

async function ask(question) {
  add(esc(question), 'user');
  add('<em>Analyzing your query...</em>');
  const placeholder = log.lastChild;
  try {
    const res = await fetch('/api/ask', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({question})
    });
    const resp = await res.json();
    placeholder.remove();
    renderResponse(resp);
  } catch (err) {
    placeholder.remove();
    add('Request failed: ' + esc(err), 'error');
  }
}

document.getElementById('form').addEventListener('submit', e => {
  e.preventDefault();
  const input = document.getElementById('question');
  const q = input.value.trim();
  if (!q) return;
  input.value = '';
  ask(q);
});

fetch('/api/prompts').then(r => r.json()).then(list => {
  const div = document.getElementById('prompts');
  list.forEach(p => {
    const btn = document.createElement('button');
    btn.textContent = p;
    btn.onclick = () => ask(p);
    div.appendChild(btn);
  });
});
</script>
</body>
</html>
`
