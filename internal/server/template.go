package server

import (
	"html/template"
	"time"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/filter"
)

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(article.DateLayout)
	},
	"labelChecked": func(spec filter.Spec, l article.Label) bool {
		if spec.Sentiments == nil {
			return true
		}
		_, ok := spec.Sentiments[l]
		return ok
	},
	"topicChecked": func(spec filter.Spec, topic string) bool {
		if spec.Topics == nil {
			return true
		}
		_, ok := spec.Topics[topic]
		return ok
	},
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>News Aggregator with Topic Clustering</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; }
aside { width: 18rem; padding: 1rem; background: #f4f4f6; min-height: 100vh; }
main { flex: 1; padding: 1rem 2rem; }
table { border-collapse: collapse; width: 100%; font-size: 0.9rem; }
th, td { border-bottom: 1px solid #ddd; padding: 0.3rem 0.5rem; text-align: left; }
details { margin: 0.4rem 0; }
fieldset { border: none; padding: 0; margin: 0 0 1rem; }
</style>
</head>
<body>
<aside>
<h2>Filters</h2>
<form method="get" action="/">
<input type="hidden" name="filtered" value="1">
<fieldset><legend>Sentiment</legend>
{{range .Options.Sentiments}}<label><input type="checkbox" name="sentiment" value="{{.}}"{{if labelChecked $.Spec .}} checked{{end}}> {{.}}</label><br>
{{end}}</fieldset>
<fieldset><legend>Date range</legend>
<input type="date" name="from" value="{{date .Spec.From}}" min="{{date .Options.From}}" max="{{date .Options.To}}"><br>
<input type="date" name="to" value="{{date .Spec.To}}" min="{{date .Options.From}}" max="{{date .Options.To}}">
</fieldset>
<fieldset><legend>Search keyword (in snippet)</legend>
<input type="text" name="keyword" value="{{.Spec.Keyword}}">
</fieldset>
<fieldset><legend>Topic cluster</legend>
{{range .Options.Topics}}<label><input type="checkbox" name="topic" value="{{.}}"{{if topicChecked $.Spec .}} checked{{end}}> {{.}}</label><br>
{{end}}</fieldset>
<fieldset><legend>Sort by</legend>
<select name="sort">{{range .SortKeys}}<option value="{{.}}"{{if eq . $.Spec.SortBy}} selected{{end}}>{{.}}</option>{{end}}</select>
<label><input type="radio" name="order" value="desc"{{if eq .Spec.Order "desc"}} checked{{end}}> Descending</label>
<label><input type="radio" name="order" value="asc"{{if eq .Spec.Order "asc"}} checked{{end}}> Ascending</label>
</fieldset>
<button type="submit">Apply</button>
</form>
</aside>
<main>
<h1>News Aggregator with Topic Clustering</h1>
<h3>Showing {{len .Rows}} Articles</h3>
<table>
<thead><tr><th>Published</th><th>Title</th><th>Sentiment</th><th>Bias</th><th>Topic</th><th>URL</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.PublishedDate}}</td><td>{{.Title}}</td><td>{{.Sentiment}}</td><td>{{.Bias}}</td><td>{{.Topic}}</td><td><a href="{{.URL}}">link</a></td></tr>
{{end}}</tbody>
</table>
<h3>Articles</h3>
{{range .Rows}}<details>
<summary>{{.Title}} ({{.PublishedDate}}) | {{.Topic}}</summary>
<p><b>Sentiment</b>: {{.Sentiment}} | <b>Bias</b>: {{.Bias}} | <b>Cluster</b>: {{.Topic}}</p>
<p><b>Source</b>: {{.Source}} | <b>News Desk</b>: {{.Desk}}</p>
<p><b>Snippet</b>: {{.Snippet}}</p>
<p><a href="{{.URL}}">Read full article</a></p>
</details>
{{end}}</main>
</body>
</html>
`
