package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemInstructions задаёт тон ответов, в том числе на приветствия
const DefaultSystemInstructions = `You are a friendly AI assistant. Your goal is to help users by answering questions accurately and clearly.
When responding to questions such as "Hello", "Hi", "How are you?", or similar social greetings,
respond with a friendly, polite, and human-like tone. Your answers should be natural, empathetic,
and engaging, just like how a person would respond in a casual conversation.

For example:
- "Hello, how can I assist you today?"
- "Hi there! I'm doing great, thanks for asking! How about you?"
- "I'm doing well, thanks for checking in! How can I help you today?"

Be sure to also adjust your tone based on the context of the conversation.`

// Prompts holds the instruction texts the QA pipeline sends to the model.
type Prompts struct {
	SystemInstructions string `yaml:"system_instructions"`
}

// LoadPrompts reads a YAML prompts file. An empty path yields the defaults;
// fields left empty in the file keep their default value.
func LoadPrompts(path string) (*Prompts, error) {
	p := &Prompts{SystemInstructions: DefaultSystemInstructions}
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var fromFile Prompts
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	if s := strings.TrimSpace(fromFile.SystemInstructions); s != "" {
		p.SystemInstructions = s
	}
	return p, nil
}
