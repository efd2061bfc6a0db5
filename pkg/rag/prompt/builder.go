package prompt

import "strings"

// AnalysisBuilder assembles the extraction prompt: instruction template,
// optional knowledge base section, then the text under analysis.
type AnalysisBuilder struct {
	instruction string
	contexts    []string
	query       string
}

func NewAnalysisBuilder(instruction string) *AnalysisBuilder {
	return &AnalysisBuilder{instruction: instruction}
}

func (b *AnalysisBuilder) WithContext(contexts []string) *AnalysisBuilder {
	b.contexts = contexts
	return b
}

func (b *AnalysisBuilder) WithQuery(query string) *AnalysisBuilder {
	b.query = query
	return b
}

func (b *AnalysisBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString(b.instruction)
	prompt.WriteString("\n")

	b.writeKnowledgeBase(&prompt)

	prompt.WriteString("Communication Dump to Analyze:\n")
	prompt.WriteString(b.query)

	return prompt.String()
}

// writeKnowledgeBase is a no-op when nothing was retrieved
func (b *AnalysisBuilder) writeKnowledgeBase(prompt *strings.Builder) {
	docs := make([]string, 0, len(b.contexts))
	for _, c := range b.contexts {
		if strings.TrimSpace(c) != "" {
			docs = append(docs, c)
		}
	}
	if len(docs) == 0 {
		return
	}

	prompt.WriteString("Knowledge Base  (use this to understand what data is needed):\n")
	prompt.WriteString(strings.Join(docs, "\n\n"))
	prompt.WriteString("\n\n")
}

// BuildRecordPrompt appends a JSON encoded record to a generator or
// reshaping instruction.
func BuildRecordPrompt(instruction, recordJSON string) string {
	return instruction + " Json File with infomation:\n" + recordJSON
}

// BuildReshapePrompt asks the model to turn a record into storable JSON.
func BuildReshapePrompt(instruction, recordJSON string) string {
	return instruction + " " + recordJSON
}
