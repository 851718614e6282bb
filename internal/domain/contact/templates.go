package contact

import (
	"bytes"
	"html/template"
)

const (
	SubjectRemoved = "You have been removed as Designated Contact"
	SubjectAdded   = "You have been added as Designated Contact"
)

var changeTmpl = template.Must(template.New("change").Parse(`The Designated Contact for your project has changed. Please see below for details:
<br>Project ID: {{.ProjectID}}
<br>Person who made the change: {{.Changer}}
{{- if .Removed}}
<br>Designated Contact Removed: {{.Removed}}
{{- end}}
<br>Designated Contact Added: {{.Added}}`))

type changeData struct {
	ProjectID int64
	Changer   string
	Removed   string
	Added     string
}

var widgetTmpl = template.Must(template.New("widget").Parse(`<div id="contactDiv" class="designated-contact {{if .Contact}}contact-set{{else}}contact-missing{{end}}">
{{- if .Contact}}
  <span class="label">Designated Contact: </span><span class="name">{{.Contact.FullName}}</span>
  {{- if .IsMe}} <span class="me">(you)</span>{{end}}
  <span class="updated">(Last updated: {{.Contact.AssignedAt.Format "2006-01-02 15:04"}})</span>
{{- else}}
  <span class="label">Please setup a Designated Contact </span><span class="name">No one has been selected yet!</span>
{{- end}}
  <form method="post" action="{{.Action}}">
    <select name="username">
    {{- range .Candidates}}
      <option value="{{.Username}}"{{if eq .Username $.Selected}} selected{{end}}>{{.FullName}} [{{.Username}}]</option>
    {{- end}}
    </select>
    <button type="submit">Change Designated Contact</button>
  </form>
  <div class="note">Only users with User Rights privileges can be Designated Contacts.</div>
  <ul class="effects">
    <li>An email will be sent to the new Designated Contact to let them know they were added to this role.</li>
    {{- if and .Contact (not .IsMe)}}
    <li>An email will be sent to the current Designated Contact to let them know they were removed from this role.</li>
    {{- end}}
  </ul>
</div>`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
