// Загрузка и Рендер - чтение файла и text/template.

package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/ilkoid/poncho-inventory/pkg/llm"
	"gopkg.in/yaml.v3"
)

// defaultPromptYAML - промпт для описания вещи под продажу на Vinted.
//
//go:embed default_prompt.yaml
var defaultPromptYAML []byte

// Load загружает и парсит YAML файл промпта
func Load(path string) (*PromptFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("prompt file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	return Parse(data)
}

// Parse разбирает YAML промпта и проверяет, что есть хотя бы одно сообщение.
func Parse(data []byte) (*PromptFile, error) {
	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}
	if len(pf.Messages) == 0 {
		return nil, fmt.Errorf("prompt has no messages")
	}
	return &pf, nil
}

// Default возвращает встроенный промпт.
func Default() *PromptFile {
	pf, err := Parse(defaultPromptYAML)
	if err != nil {
		// встроенный файл проверяется тестом
		panic(fmt.Sprintf("embedded prompt is invalid: %v", err))
	}
	return pf
}

// LoadOrDefault грузит path или возвращает встроенный промпт, если путь пуст.
func LoadOrDefault(path string) (*PromptFile, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// RenderMessages принимает данные (struct или map) и возвращает готовые сообщения
// где все {{.Field}} заменены на значения.
func (pf *PromptFile) RenderMessages(data interface{}) ([]llm.Message, error) {
	rendered := make([]llm.Message, len(pf.Messages))

	for i, msg := range pf.Messages {
		tmpl, err := template.New("msg").Option("missingkey=error").Parse(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("template parse error in message #%d (%s): %w", i, msg.Role, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("template execute error in message #%d: %w", i, err)
		}

		role := llm.Role(msg.Role)
		if role == "" {
			role = llm.RoleUser
		}

		rendered[i] = llm.Message{
			Role:    role,
			Content: buf.String(),
		}
	}

	return rendered, nil
}
