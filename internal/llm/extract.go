package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const extractSystemPrompt = "You are a precise order extraction system. " +
	"Extract only confirmed/final order items from conversation transcripts. " +
	"Output valid JSON only."

// ExtractItems distills the final confirmed order items from a conversation
// transcript. Best-effort: any model or parse failure yields an empty list
// and a non-nil error for the caller to log; verification decides how to
// treat an empty expected set.
func ExtractItems(ctx context.Context, client Client, transcript string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	prompt := fmt.Sprintf(`Read this conversation transcript between a customer and an order-taking agent.
Extract ONLY the final confirmed order items. Include quantity, size, and item name for each.

Transcript:
---
%s
---

Respond in JSON format:
{
  "items": [
    "quantity size item_name",
    ...
  ]
}

If no clear order was placed, return {"items": []}`, transcript)

	response, err := client.CompleteWithSystem(ctx, extractSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("item extraction failed: %w", err)
	}

	items, err := parseItemsResponse(response)
	if err != nil {
		logger.Warn("could not parse extraction response",
			zap.Error(err),
			zap.String("response", truncate(response, 200)))
		return nil, err
	}

	logger.Info("extracted expected items", zap.Strings("items", items))
	return items, nil
}

// parseItemsResponse pulls the items array out of a model response that may
// carry fences or prose around the JSON object.
func parseItemsResponse(response string) ([]string, error) {
	response = stripFences(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Items []string `json:"items"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parse items JSON: %w", err)
	}

	items := make([]string, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	return items, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
