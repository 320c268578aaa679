// Package action implements the Bedrock Agents action-group contract for function-schema action
// groups: the event an agent sends to a Lambda and the response envelope it expects back.
package action

import "strings"

// DefaultMessageVersion is echoed when an event arrives without one.
const DefaultMessageVersion = "1.0"

type Agent struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Alias   string `json:"alias,omitempty"`
	Version string `json:"version,omitempty"`
}

type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// Event is the payload an agent sends when it calls a function of an action group.
type Event struct {
	MessageVersion          string            `json:"messageVersion"`
	Agent                   Agent             `json:"agent"`
	InputText               string            `json:"inputText,omitempty"`
	SessionID               string            `json:"sessionId,omitempty"`
	ActionGroup             string            `json:"actionGroup"`
	Function                string            `json:"function"`
	Parameters              []Parameter       `json:"parameters,omitempty"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

// Param returns the trimmed value of the named parameter, or "" when the agent did not send it.
// A repeated name resolves to its last occurrence.
func (e Event) Param(name string) string {
	value := ""
	for _, p := range e.Parameters {
		if p.Name == name {
			value = p.Value
		}
	}
	return strings.TrimSpace(value)
}

// ParamOr returns Param(name), or def when it is empty.
func (e Event) ParamOr(name, def string) string {
	if v := e.Param(name); v != "" {
		return v
	}
	return def
}

// ParamOrSession falls back to the session attribute sessionKey when the parameter is missing.
// Session attributes live for the whole conversation, prompt session attributes for one turn;
// the longer-lived value wins.
func (e Event) ParamOrSession(name, sessionKey string) string {
	if v := e.Param(name); v != "" {
		return v
	}
	if v := strings.TrimSpace(e.SessionAttributes[sessionKey]); v != "" {
		return v
	}
	return strings.TrimSpace(e.PromptSessionAttributes[sessionKey])
}

type TextBody struct {
	Body string `json:"body"`
}

type ResponseBody struct {
	Text TextBody `json:"TEXT"`
}

type FunctionResponse struct {
	ResponseBody ResponseBody `json:"responseBody"`
}

type ActionResponse struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

// Response is the envelope returned to the agent.
type Response struct {
	MessageVersion          string            `json:"messageVersion"`
	Response                ActionResponse    `json:"response"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

// NewTextResponse wraps body in the envelope for ev, carrying its session state forward.
func NewTextResponse(ev Event, body string) Response {
	version := ev.MessageVersion
	if version == "" {
		version = DefaultMessageVersion
	}
	return Response{
		MessageVersion: version,
		Response: ActionResponse{
			ActionGroup: ev.ActionGroup,
			Function:    ev.Function,
			FunctionResponse: FunctionResponse{
				ResponseBody: ResponseBody{Text: TextBody{Body: body}},
			},
		},
		SessionAttributes:       ev.SessionAttributes,
		PromptSessionAttributes: ev.PromptSessionAttributes,
	}
}

// Text returns the response body text.
func (r Response) Text() string {
	return r.Response.FunctionResponse.ResponseBody.Text.Body
}
