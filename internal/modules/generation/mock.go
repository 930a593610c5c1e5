package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tenx-cards/core/internal/config"
)

const mockMaxChunks = 12

var (
	paragraphSplit = regexp.MustCompile(`\n\n+`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	wordSplit      = regexp.MustCompile(`\s+`)
)

var questionTemplates = []string{
	"What is the main concept discussed in:",
	"How would you explain:",
	"What does the following describe:",
	"Define the following:",
	"What is meant by:",
	"Explain the concept of:",
	"What are the key points about:",
	"Describe:",
}

type concept struct {
	keyword string
	card    Proposal
}

// concepts are matched case-insensitively against the text, in this order.
var concepts = []concept{
	{"rest", Proposal{
		Avers:  "What is REST?",
		Rewers: "REST (Representational State Transfer) is an architectural style for designing networked applications, using HTTP methods and stateless communication.",
	}},
	{"api", Proposal{
		Avers:  "What is an API?",
		Rewers: "API (Application Programming Interface) is a set of rules and protocols that allows different software applications to communicate with each other.",
	}},
	{"javascript", Proposal{
		Avers:  "What is JavaScript?",
		Rewers: "JavaScript is a high-level, interpreted programming language used primarily for creating interactive web pages and web applications.",
	}},
	{"typescript", Proposal{
		Avers:  "What is TypeScript?",
		Rewers: "TypeScript is a strongly typed superset of JavaScript that compiles to plain JavaScript, adding static type definitions.",
	}},
	{"react", Proposal{
		Avers:  "What is React?",
		Rewers: "React is a JavaScript library for building user interfaces, particularly single-page applications, using a component-based architecture.",
	}},
	{"database", Proposal{
		Avers:  "What is a database?",
		Rewers: "A database is an organized collection of structured data stored electronically, designed for efficient retrieval, management, and updating.",
	}},
	{"algorithm", Proposal{
		Avers:  "What is an algorithm?",
		Rewers: "An algorithm is a step-by-step procedure or formula for solving a problem or completing a task, often used in computer programming.",
	}},
	{"function", Proposal{
		Avers:  "What is a function in programming?",
		Rewers: "A function is a reusable block of code that performs a specific task, can accept parameters, and can return a value.",
	}},
}

// mockGenerator builds proposals offline from keyword matches and text
// chunks. Output is deterministic for a given text.
type mockGenerator struct {
	delay time.Duration
}

func newMockGenerator(delay time.Duration) *mockGenerator {
	return &mockGenerator{delay: delay}
}

func (g *mockGenerator) Name() string { return config.ProviderMock }

func (g *mockGenerator) Generate(ctx context.Context, text, _ string) ([]Proposal, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	cards := conceptCards(text)
	for i, chunk := range splitIntoChunks(text, mockMaxChunks) {
		cards = append(cards, Proposal{
			Avers:  mockQuestion(chunk, i),
			Rewers: mockAnswer(chunk),
		})
	}
	if len(cards) > MaxProposals {
		cards = cards[:MaxProposals]
	}
	for len(cards) < MinMockProposals {
		cards = append(cards, Proposal{
			Avers:  fmt.Sprintf("Question %d: What is the key concept in this section?", len(cards)+1),
			Rewers: prefixRunes(strings.TrimSpace(text), 100) + "...",
		})
	}

	// same validation as model output
	raw, err := json.Marshal(cards)
	if err != nil {
		return nil, err
	}
	return ParseProposals(string(raw))
}

func conceptCards(text string) []Proposal {
	lower := strings.ToLower(text)
	out := make([]Proposal, 0, len(concepts))
	for _, c := range concepts {
		if strings.Contains(lower, c.keyword) {
			out = append(out, c.card)
		}
	}
	return out
}

// splitIntoChunks prefers paragraphs, then sentences longer than 30
// characters, then evenly sized groups of sentences.
func splitIntoChunks(text string, maxChunks int) []string {
	paragraphs := splitTrimmed(paragraphSplit, text, 0)
	if len(paragraphs) > 0 && len(paragraphs) <= maxChunks {
		return paragraphs
	}

	sentences := splitTrimmed(sentenceSplit, text, 30)
	if len(sentences) <= maxChunks {
		return sentences
	}

	size := (len(sentences) + maxChunks - 1) / maxChunks
	chunks := make([]string, 0, maxChunks)
	for i := 0; i < len(sentences); i += size {
		end := i + size
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], ". "))
	}
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	return chunks
}

// splitTrimmed splits text and keeps trimmed parts longer than minLen runes.
func splitTrimmed(re *regexp.Regexp, text string, minLen int) []string {
	parts := re.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len([]rune(p)) > minLen {
			out = append(out, p)
		}
	}
	return out
}

func mockQuestion(chunk string, index int) string {
	template := questionTemplates[index%len(questionTemplates)]
	snippet := strings.TrimSpace(prefixRunes(chunk, 80))
	words := wordSplit.Split(snippet, -1)
	if len(words) > 10 {
		return fmt.Sprintf("%s %s...?", template, strings.Join(words[:8], " "))
	}
	return fmt.Sprintf("%s %s?", template, snippet)
}

func mockAnswer(chunk string) string {
	sentences := splitTrimmed(sentenceSplit, chunk, 20)
	if len(sentences) == 0 {
		return strings.TrimSpace(prefixRunes(chunk, 150)) + "..."
	}
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	return truncateRunes(strings.Join(sentences, ". ")+".", RewersMaxLen)
}

func prefixRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
