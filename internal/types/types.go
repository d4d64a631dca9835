package types

// FeedbackArity is the number of entries each feedback list must contain.
// Replies that produce more or fewer are rejected rather than padded or
// truncated.
const FeedbackArity = 3

// ReviewResumeInput represents the input for a resume review operation
type ReviewResumeInput struct {
	ResumeText string `json:"resumeText"`
}

// Feedback is the structured outcome of a resume review. Both lists always
// hold exactly FeedbackArity entries.
type Feedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// ReviewResumeOutput represents the result of a resume review operation
type ReviewResumeOutput struct {
	Feedback Feedback `json:"feedback"`
}

// ChatMessage is a single prior turn of a conversation. History is carried
// by the caller on every request; the server keeps nothing between calls.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatInput represents the input for a career chat operation
type ChatInput struct {
	Message    string        `json:"message"`
	ResumeText string        `json:"resumeText,omitempty"`
	History    []ChatMessage `json:"history,omitempty"`
}

// ChatOutput represents the result of a career chat operation
type ChatOutput struct {
	Reply string `json:"reply"`
}

// PlanInput represents the input for a career plan operation
type PlanInput struct {
	Goal string `json:"goal"`
}

// PlanStep is a single numbered step of a generated career plan
type PlanStep struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
}

// Plan is a goal broken down into ordered steps
type Plan struct {
	Goal string     `json:"goal"`
	Plan []PlanStep `json:"plan"`
}

// PlanOutput represents the result of a career plan operation
type PlanOutput struct {
	Plan Plan `json:"plan"`
}

// AgentQueryInput represents the input for a persona-driven agent query
type AgentQueryInput struct {
	Query       string        `json:"query"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
	Persona     string        `json:"persona,omitempty"`
}

// AgentQueryOutput represents the result of a persona-driven agent query
type AgentQueryOutput struct {
	Reply string `json:"reply"`
}
