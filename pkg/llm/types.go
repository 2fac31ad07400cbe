// Базовые типы - универсальный язык общения с vision моделями.
package llm

// Role - роль автора сообщения.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message - одно сообщение чата.
//
// Images содержит data URI ("data:image/png;base64,...") или http ссылки;
// адаптер превращает их в image_url части того же сообщения.
type Message struct {
	Role    Role
	Content string
	Images  []string
}

// Usage - расход токенов на один запрос.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
