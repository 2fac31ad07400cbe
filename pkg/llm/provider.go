// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider - контракт для любого multimodal chat API.
type Provider interface {
	// Generate отправляет историю сообщений и возвращает первый вариант ответа.
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error)
}
