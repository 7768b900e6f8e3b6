package convo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"callcheck/internal/llm"
)

const personaGeneratorSystem = `You are a test scenario designer for a pizza ordering voice AI system.
Given a user's test scenario description, generate a detailed customer persona prompt.
The persona is always named "Ravi" and is calling to order pizza.

You MUST output ONLY the persona prompt text — no commentary, no markdown fences, no preamble.

Follow this exact structure:
1. Opening line describing who Ravi is and the scenario context
2. **Your Order:** — the specific items Ravi wants to order
3. **Conversation Flow:** — numbered steps for Greeting, Ordering, Time Confirmation, Order Review, Final Confirmation, and Handoff
4. **Personality:** — bullet points describing how Ravi behaves
5. **Rules:** — output rules (spoken dialogue only, concise, etc.)
6. **Example Responses:** — 4-6 short example lines Ravi might say`

// LoadPersona reads a persona prompt from the personas directory, falling
// back to default.txt when the named persona does not exist.
func LoadPersona(dir, name string) (string, error) {
	if name == "" {
		name = "default"
	}
	path := filepath.Join(dir, name+".txt")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(dir, "default.txt")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load persona: %w", err)
	}
	return string(data), nil
}

// GeneratePersona asks the model to write a persona prompt for a free-text
// scenario description, using the default persona as a structural example.
// Falls back to the default persona on any failure.
func GeneratePersona(ctx context.Context, client llm.Client, personasDir, scenario string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	example, err := LoadPersona(personasDir, "default")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Here is an example persona for reference:

---
%s
---

Now generate a NEW persona for this test scenario:
%q

Output only the persona text, matching the structure of the example above.`, example, scenario)

	persona, genErr := client.CompleteWithSystem(ctx, personaGeneratorSystem, prompt)
	persona = strings.TrimSpace(persona)
	if genErr != nil || persona == "" {
		logger.Warn("persona generation failed, falling back to default", zap.Error(genErr))
		return example, nil
	}

	logger.Info("generated persona from scenario", zap.String("scenario", scenario))
	return persona, nil
}
