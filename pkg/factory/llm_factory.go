package factory

import (
	"fmt"

	"github.com/ilkoid/poncho-inventory/pkg/config"
	"github.com/ilkoid/poncho-inventory/pkg/llm"
	"github.com/ilkoid/poncho-inventory/pkg/llm/openai"
)

// Базовые URL OpenAI-совместимых провайдеров, если base_url не задан.
var defaultBaseURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"zai":        "https://api.z.ai/api/paas/v4",
}

// NewVisionProvider создает провайдера на основе конфигурации модели.
//
// Все поддерживаемые провайдеры говорят на протоколе chat completions,
// разница только в base_url.
func NewVisionProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "", "openai", "openai-compatible":
		return openai.NewClient(modelDef), nil

	case "openrouter", "zai":
		if modelDef.BaseURL == "" {
			modelDef.BaseURL = defaultBaseURLs[modelDef.Provider]
		}
		return openai.NewClient(modelDef), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}
