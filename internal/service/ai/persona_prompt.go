package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/anchor/backend/internal/model/persona"
)

// BuildSystemPrompt 将角色设定与对话上下文拼成系统提示词。
func BuildSystemPrompt(p persona.Persona, conversation string) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("You are %s", p.Name))
	if title := strings.TrimSpace(p.Title); title != "" {
		builder.WriteString(", ")
		builder.WriteString(title)
	}
	builder.WriteString(". ")
	builder.WriteString(p.Instruction)

	builder.WriteString("\n\nConversation history:\n")
	builder.WriteString(conversation)
	builder.WriteString("\n\nRespond naturally to continue this conversation.")
	return builder.String()
}

// BuildPrompt returns the full request for one reply.
func BuildPrompt(p persona.Persona, conversation, message string) Prompt {
	return Prompt{
		System: BuildSystemPrompt(p, conversation),
		User:   message,
	}
}
