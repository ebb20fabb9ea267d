package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a document's conversation. User messages are
// created complete; assistant messages grow in place while a stream is
// active and become immutable once citations are attached.
type Message struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
	IsError   bool       `json:"isError,omitempty"`
}

// Citation is a (page number, matched marker text) pair derived from an
// assistant message's finished content. Never persisted on its own.
type Citation struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}
