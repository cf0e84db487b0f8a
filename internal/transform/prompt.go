package transform

import (
	"fmt"
	"strings"
)

// task is the prompt a given action runs. Rewrite shares the polish prompt.
type task string

const (
	taskImprove   task = "improve"
	taskExplain   task = "explain"
	taskExpand    task = "expand"
	taskSummarize task = "summarize"
	taskTranslate task = "translate"
	taskPolish    task = "polish"
)

func taskFor(a ActionType) task {
	switch a {
	case ActionImprove:
		return taskImprove
	case ActionExplain:
		return taskExplain
	case ActionExpand:
		return taskExpand
	case ActionSummarize:
		return taskSummarize
	case ActionTranslate:
		return taskTranslate
	case ActionRewrite:
		return taskPolish
	default:
		return taskImprove
	}
}

var taskInstructions = map[task]string{
	taskImprove: "Improve the clarity, flow and word choice of the text while keeping its meaning and voice. " +
		"You may end with one short line describing the main change.",
	taskExplain: "Explain the text in plain language for a general reader. " +
		"You may end with one short line summarizing the explanation.",
	taskExpand:    "Expand the text with relevant detail, examples or reasoning. Keep the original tone.",
	taskSummarize: "Summarize the text, keeping only its key points.",
	taskTranslate: "Translate the text into %s. Preserve formatting, names and technical terms.",
	taskPolish:    "Rewrite and polish the text so it reads naturally and fits the requested style.",
}

const systemPreamble = "You are a writing assistant embedded in a document editor."

// DefaultLanguage is the translation target when a request names none.
const DefaultLanguage = "English"

// BuildPrompt returns the system and user messages for req.
func BuildPrompt(req Request) (system, user string) {
	t := taskFor(req.Action)
	instruction := taskInstructions[t]
	if t == taskTranslate {
		lang := strings.TrimSpace(req.Language)
		if lang == "" {
			lang = DefaultLanguage
		}
		instruction = fmt.Sprintf(instruction, lang)
	}
	system = systemPreamble + "\n\n" + instruction

	var sb strings.Builder
	sb.WriteString("# Text\n")
	sb.WriteString(req.Text)

	extra := strings.TrimSpace(req.Instruction)
	if extra == "" {
		extra = strings.TrimSpace(req.Context)
	}
	if extra != "" {
		sb.WriteString("\n\n# Instruction\n")
		sb.WriteString(extra)
	}

	sb.WriteString("\n\n# Output\n")
	sb.WriteString("Reply with the processed text only.")
	return system, sb.String()
}

var explanationKeywords = []string{"修改", "改进", "解释", "change", "improve"}

// SplitExplanation separates a trailing explanation line from model output.
// Only improve and explain produce one, and only when the last line mentions
// what was changed or explained.
func SplitExplanation(a ActionType, output string) (text, explanation string) {
	text = strings.TrimSpace(output)
	if a != ActionImprove && a != ActionExplain {
		return text, ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text, ""
	}
	last := strings.ToLower(lines[len(lines)-1])
	for _, kw := range explanationKeywords {
		if strings.Contains(last, kw) {
			return strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n")), strings.TrimSpace(lines[len(lines)-1])
		}
	}
	return text, ""
}
