package notify

import (
	"bytes"
	"html/template"
)

const Subject = "You are a Designated Contact!"

var pendingTmpl = template.Must(template.New("pending").Parse(`Hello {{.Name}},<br><br>
You are the Designated Contact for the following project(s): <ul>
{{- range .Projects}}
<li> [{{.ID}}] <a href="{{.Link}}">{{.Title}}</a></li>
{{- end}}
</ul>
The Designated Contact will be the point person who will be contacted<br>
by the platform team for important announcements or if there are issues<br>
with your project.<br><br>
To change the Designated Contact, please log in, go to the project<br>
and navigate to the User Rights page. You will be able to select another user<br>
with User Rights privileges.<br><br>
Platform Team`))

type pendingProject struct {
	ID    int64
	Title string
	Link  string
}

type pendingData struct {
	Name     string
	Projects []pendingProject
}

func renderPending(data pendingData) (string, error) {
	var buf bytes.Buffer
	if err := pendingTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
