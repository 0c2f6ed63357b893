package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON достаёт JSON-объект из текстового ответа модели.
//
// Модель с включённым поиском не поддерживает response_mime_type,
// поэтому JSON может прийти обёрнутым в markdown-ограждение
// (```json ... ```) или с пояснительным текстом вокруг. Берётся
// подстрока от первой '{' до последней '}'.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in response", ErrBadResponse)
	}
	return s[start : end+1], nil
}

// decodeResponse разбирает текстовый ответ модели в out.
func decodeResponse(raw string, out any) error {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
