// Package canvas models the component tree rendered by the messenger inbox app.
package canvas

// Component is one node of a canvas. Only the fields relevant to Type are set.
type Component struct {
	Type        string   `json:"type"`
	ID          string   `json:"id,omitempty"`
	Text        string   `json:"text,omitempty"`
	Style       string   `json:"style,omitempty"`
	Label       string   `json:"label,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Value       string   `json:"value,omitempty"`
	Size        string   `json:"size,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Action      *Action  `json:"action,omitempty"`
	Disabled    bool     `json:"disabled,omitempty"`
}

// Option is a dropdown choice.
type Option struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Action is what a button does when clicked.
type Action struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Content holds the components of one canvas.
type Content struct {
	Components []Component `json:"components"`
}

// Canvas is the body of a response.
type Canvas struct {
	Content    Content        `json:"content"`
	StoredData map[string]any `json:"stored_data,omitempty"`
}

// Response is the envelope returned to the inbox for initialize and submit calls.
type Response struct {
	Canvas Canvas `json:"canvas"`
}

// Kind tags which view a Response carries. It is not serialized.
type Kind string

const (
	KindDefault Kind = "default"
	KindForm    Kind = "form"
	KindError   Kind = "error"
)

// View is a rendered Response plus its kind, as returned by the service layer.
type View struct {
	Kind     Kind
	Response Response
}

func Text(text, style string) Component {
	return Component{Type: "text", Text: text, Style: style}
}

func Spacer(size string) Component {
	return Component{Type: "spacer", Size: size}
}

func Divider() Component {
	return Component{Type: "divider"}
}

// SubmitButton posts the canvas back with the button id as component_id.
func SubmitButton(id, label, style string) Component {
	return Component{Type: "button", ID: id, Label: label, Style: style, Action: &Action{Type: "submit"}}
}

// URLButton opens url in a new tab.
func URLButton(id, label, url string) Component {
	return Component{Type: "button", ID: id, Label: label, Style: "link", Action: &Action{Type: "url", URL: url}}
}

func Input(id, label, placeholder, value string) Component {
	return Component{Type: "input", ID: id, Label: label, Placeholder: placeholder, Value: value}
}

func Textarea(id, label, placeholder, value string) Component {
	return Component{Type: "textarea", ID: id, Label: label, Placeholder: placeholder, Value: value}
}

// Dropdown renders options; value must match an option id or be empty.
func Dropdown(id, label string, options []Option, value string) Component {
	return Component{Type: "dropdown", ID: id, Label: label, Options: options, Value: value}
}

func newResponse(components []Component) Response {
	return Response{Canvas: Canvas{Content: Content{Components: components}}}
}
