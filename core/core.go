package core

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem tags the system instruction message.
	RoleSystem Role = "system"
	// RoleUser tags the user prompt message.
	RoleUser Role = "user"
	// RoleAssistant tags model generated context messages.
	RoleAssistant Role = "assistant"
)

// Message is a role-tagged entry of the conversation sent to the
// text-completion capability. Ordering within a request is significant.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system role message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// UserMessage builds a user role message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// AssistantMessage builds an assistant role message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// InputRef references the input fed into a step: either an original repository
// artifact (Initial=true) or the persisted output of the upstream step.
type InputRef struct {
	// Path is the filesystem location of the input content.
	Path string
	// Initial marks the artifact as a raw repository input, i.e. no step has
	// produced it. Only initial inputs are exposed to prompt templates under
	// the reserved input_content placeholder.
	Initial bool
}

// StepResult is the artifact a step produced: the extracted payload plus its
// storage location. Results are recorded into the ExecutionContext under the
// producing step's name and passed by reference to descendant steps.
type StepResult struct {
	Step string // Producing step name
	Text string // Extracted payload text
	Path string // Storage location of the persisted payload
}
