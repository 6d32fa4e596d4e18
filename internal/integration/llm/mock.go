package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector - мок-реализация LLM коннектора для тестирования и локального запуска
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Complete returns a canned test question when asked for one, otherwise a canned answer
func (m *MockConnector) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	var system, user string
	for _, msg := range req.Messages {
		switch msg.Role {
		case entity.RoleSystem:
			system = msg.Content
		case entity.RoleUser:
			user = msg.Content
		}
	}

	if strings.Contains(system, "RESPUESTA_CORRECTA") {
		ctxzap.Info(ctx, "[MOCK] generating test question via LLM")

		return `1-¿Qué establece el artículo indicado de la Ley 109?
1-Lo que dispone literalmente el artículo.
2-Una norma de otro código.
3-Una recomendación sin carácter obligatorio.
RESPUESTA_CORRECTA:1`, nil
	}

	ctxzap.Info(ctx, "[MOCK] generating answer via LLM", zap.Int("prompt_length", len(user)))

	// Ответ ссылается на первую статью из контекста, если она есть
	cited := "los artículos proporcionados"
	if _, rest, ok := strings.Cut(user, "Artículo "); ok {
		if id, _, ok := strings.Cut(rest, ":"); ok {
			cited = "el Artículo " + id
		}
	}

	return fmt.Sprintf("Respuesta de prueba (MOCK). Según %s de la Ley 109, la consulta se responde con el contenido citado.", cited), nil
}

func (m *MockConnector) Provider() string {
	return "Mock"
}
