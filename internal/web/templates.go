package web

import "html/template"

// pageData - данные для рендера главной страницы
type pageData struct {
	Result  string
	Phish   bool
	URL     string
	Recent  []recentItem
	Trained string
}

type recentItem struct {
	URL       string
	Phish     bool
	CheckedAt string
}

var pageTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>PhishGuard</title>
    <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.2/dist/css/bootstrap.min.css" rel="stylesheet">
    <style>
      body {
        background: linear-gradient(135deg, #74ebd5 0%, #ACB6E5 100%);
        min-height: 100vh;
        display: flex;
        align-items: center;
        justify-content: center;
        font-family: Arial, sans-serif;
      }
      .card {
        border-radius: 20px;
        box-shadow: 0 8px 20px rgba(0,0,0,0.2);
      }
      .btn-custom {
        background-color: #007bff;
        color: white;
        border-radius: 30px;
        padding: 10px 20px;
      }
      .result-safe {
        color: green;
        font-weight: bold;
      }
      .result-phish {
        color: red;
        font-weight: bold;
      }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="card p-5 text-center">
        <h2 class="mb-4">🔒 PhishGuard</h2>
        <p class="text-muted">Enter a URL below to check if it is Safe or a Phishing attempt</p>
        <form method="post" class="d-flex justify-content-center mb-3">
          <input type="text" name="url" class="form-control me-2" placeholder="https://example.com" value="{{.URL}}" required style="max-width: 500px;">
          <button type="submit" class="btn btn-custom">Check</button>
        </form>
        {{- if .Result}}
        <h4 id="result" class="{{if .Phish}}result-phish{{else}}result-safe{{end}}">Result: {{.Result}}</h4>
        {{- end}}
        {{- if .Recent}}
        <h6 class="mt-4 text-muted">Recent checks</h6>
        <ul id="recent" class="list-group list-group-flush text-start">
          {{- range .Recent}}
          <li class="list-group-item d-flex justify-content-between">
            <span class="text-truncate">{{.URL}}</span>
            <span class="{{if .Phish}}result-phish{{else}}result-safe{{end}}">{{if .Phish}}PHISHING{{else}}SAFE{{end}}</span>
          </li>
          {{- end}}
        </ul>
        {{- end}}
        {{- if .Trained}}
        <p class="mt-3 small text-muted">Model trained {{.Trained}}</p>
        {{- end}}
      </div>
    </div>
  </body>
</html>
`))
