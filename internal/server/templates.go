package server

const baseTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - wysiwym</title>
</head>
<body>
<header><a href="/">start</a> | <a href="/{{.Path}}">{{.Path}}</a>{{if eq .Template "view"}} | <a href="/{{.Path}}?action=edit">edit</a>{{end}}</header>
{{if .RenderError}}<p class="error">{{.RenderError}}</p>{{end}}
{{if eq .Template "view"}}
<main class="page">{{.Content}}</main>
{{else}}
<form id="editor" method="post" action="/{{.Path}}?action=save">
<div id="surface"></div>
<input type="hidden" name="docmodel" id="docmodel">
<input type="hidden" name="editor" id="editor-tree">
<textarea name="html" hidden></textarea>
<button type="submit">Save</button>
</form>
<pre id="markdown">{{.Markdown}}</pre>
<script>
window.wysiwym = {
  schema: {{if .SchemaJSON}}{{.SchemaJSON}}{{else}}null{{end}},
  doc: {{if .DocJSON}}{{.DocJSON}}{{else}}null{{end}},
  editor: {{if .EditorJSON}}{{.EditorJSON}}{{else}}null{{end}}
};
</script>
{{end}}
</body>
</html>
`
