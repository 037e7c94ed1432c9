package api

import "html/template"

// Page templates for the preview endpoints. srcdoc is filled through
// html/template so the attribute value decodes back to the exact document.
const pageTemplates = `
{{define "preview.tmpl"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>{{.Title}}</title>
<style>html,body{margin:0;height:100%}iframe{border:0;width:100%;height:100vh}</style>
</head>
<body>
<iframe sandbox="allow-scripts" title="{{.Title}}" srcdoc="{{.Document}}"></iframe>
</body>
</html>{{end}}

{{define "unavailable.tmpl"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8" /><title>Preview not available</title></head>
<body>
<h1>Preview not available</h1>
<p>{{.Title}} has no generated HTML.</p>
<p><a href="/">Back to the generator</a></p>
</body>
</html>{{end}}

{{define "notfound.tmpl"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8" /><title>Page not found</title></head>
<body>
<h1>Page not found</h1>
<p><a href="/">Back to the generator</a></p>
</body>
</html>{{end}}
`

// PageTemplates parses the preview templates. RegisterRoutes installs them on the router.
func PageTemplates() *template.Template {
	return template.Must(template.New("pages").Parse(pageTemplates))
}

type previewView struct {
	Title    string
	Document string
}
