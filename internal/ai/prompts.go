package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ReviewResume string
	Chat         string
	AgentPlan    string
	AgentQuery   string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ReviewResume string
	Chat         string
	AgentPlan    string
	AgentQuery   string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ReviewResume: `You are an expert career coach and professional resume reviewer. Your core principles are:

- Give honest, specific, actionable feedback grounded in the resume content
- Never invent details that are not present in the resume
- Balance encouragement with concrete areas to improve
- Follow output format instructions exactly, with no extra commentary`,

	Chat: `You are KareerBot, a friendly and knowledgeable career assistant. You help people with:

- Resume and cover letter advice
- Job search strategy and interview preparation
- Career transitions and skill development

Keep replies conversational, practical, and grounded in any resume content the user has shared.`,

	AgentPlan: `You are a career planning agent. Given a career goal, you break it down into a realistic, ordered sequence of concrete steps a person can act on. Each step must be specific and achievable. Follow output format instructions exactly.`,

	AgentQuery: `You are a career advisor agent. Answer the user's question helpfully and concisely, taking the conversation so far into account. Stay in the persona you are given.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ReviewResume: `Review the following resume as an expert career coach.

Identify exactly 3 strengths and exactly 3 areas for improvement.

Respond with ONLY a JSON object in this exact format, with no prose before or after it:
{"strengths": ["...", "...", "..."], "improvements": ["...", "...", "..."]}

Each entry must be a single, specific, actionable sentence.

**Resume:**
-----
%s
-----`,

	Chat: `**Resume shared by the user:**
-----
%s
-----

**Conversation so far:**
%s

**User's new message:**
%s

Reply to the user's new message.`,

	AgentPlan: `Create a step-by-step career plan for the following goal.

Respond with ONLY a JSON object in this exact format, with no prose before or after it:
{"goal": "<the goal restated>", "plan": [{"step": 1, "description": "..."}, {"step": 2, "description": "..."}]}

Use between 4 and 8 steps, numbered sequentially from 1.

**Goal:**
-----
%s
-----`,

	AgentQuery: `**Persona:**
%s

**Conversation so far:**
%s

**User's question:**
%s

Answer the question in the given persona.`,
}

// DefaultAgentPersona is used for agent queries when the caller supplies none.
const DefaultAgentPersona = "a supportive and experienced career advisor"

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}
