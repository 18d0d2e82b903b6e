package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// FunctionCall describes a tool invocation requested by a model.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // JSON object
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

func (FunctionCallPart) isPart() {}

// FunctionResponse carries the outcome of a FunctionCall back to the model.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"` // Matches originating FunctionCall ID
	Name     string `json:"name"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

func (FunctionResponsePart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // user, assistant, tool, system
	Parts []Part `json:"parts"`
}

// NewTextContent builds single-part text content for role.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates the text parts of c.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// FunctionCalls returns the function calls contained in c in order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}
