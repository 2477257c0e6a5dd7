package notifications

var commonTemplates = map[string]string{
	"default-legacy": `
{{- range $i, $e := . -}}
{{- if $i}}{{- println -}}{{- end -}}
{{- $msg := $e.Message -}}
{{- if eq $msg "Action failed" -}}
    {{with $e.Data.action}}{{.}}{{else}}action{{end}} failed{{with $e.Data.image}} ({{.}}){{end}}: {{with $e.Data.error}}{{.}}{{else}}unknown error{{end}}
{{- else if eq $msg "Uploaded images" -}}
    Uploaded images: {{with $e.Data.filenames}}{{.}}{{else}}none{{end}}
{{- else if eq $msg "Removed image" -}}
    Removed image: {{with $e.Data.image}}{{.}}{{else}}unknown{{end}}
{{- else if eq $msg "Generated GIF" -}}
    GIF ready: {{with $e.Data.gif_url}}{{.}}{{else}}unknown{{end}}
{{- else if $e.Data -}}
    {{$msg}} | {{range $k, $v := $e.Data -}}{{$k}}={{$v}} {{- end}}
{{- else -}}
    {{$msg}}
{{- end -}}
{{- end -}}`,

	`default`: `
{{- if .Report -}}
  {{- with .Report -}}
    {{len .All}} Finished, {{len .Succeeded}} Succeeded, {{len .Failed}} Failed
    {{- range .Failed}}
- {{.Kind}}{{with .Target}} ({{.}}){{end}}: {{.State}}: {{.Error}}
    {{- end -}}
  {{- end -}}
{{- else -}}
  {{range .Entries -}}{{.Message}}{{"\n"}}{{- end -}}
{{- end -}}`,

	`porcelain.v1.summary-no-log`: `
{{- if .Report -}}
  {{- range .Report.All }}
    {{- .Kind}}{{with .Target}} ({{.}}){{end}}: {{.State -}}
    {{- with .Error}} Error: {{.}}{{end}}{{ println }}
  {{- else -}}
    no actions finished
  {{- end -}}
{{- end -}}`,

	`json.v1`: `{{ . | ToJSON }}`,
}
