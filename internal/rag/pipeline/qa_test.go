package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"empchat/internal/rag/schema"
)

func scoredDoc(source, text string, score, weighted float64) *schema.ScoredDocument {
	return &schema.ScoredDocument{
		Document: &schema.Document{
			ID:   source + "-chunk",
			Text: text,
			Metadata: map[string]interface{}{
				schema.MetadataKeySource:    source,
				schema.MetadataKeyPageLabel: "2",
			},
		},
		Score:         score,
		WeightedScore: weighted,
	}
}

func TestComposePlainAnswer_PromptCarriesContextAndQuestion(t *testing.T) {
	llm := &fakeLLM{answer: "the stator is wound first, thanks for asking!"}
	qa := NewQAPipeline(llm, testLogger())

	docs := []*schema.Document{
		{Text: "stator winding precedes rotor assembly"},
		{Text: "insulation testing follows impregnation"},
	}
	answer, err := qa.ComposePlainAnswer(context.Background(), "what comes first?", docs)
	if err != nil {
		t.Fatalf("ComposePlainAnswer: %v", err)
	}
	if answer != "the stator is wound first, thanks for asking!" {
		t.Errorf("unexpected answer %q", answer)
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("expected 1 LLM call, got %d", len(llm.prompts))
	}
	prompt := llm.prompts[0]
	if !containsAll(prompt,
		"Context 1:\nstator winding precedes rotor assembly",
		"Context 2:\ninsulation testing follows impregnation",
		"Question: what comes first?",
		`say that you don't know`,
		"Helpful Answer:",
	) {
		t.Errorf("plain prompt missing expected pieces:\n%s", prompt)
	}
	if strings.Contains(prompt, "process chain") {
		t.Errorf("plain prompt must not use the process chain template")
	}
}

func TestComposeProcessChainAnswer_UsesStructuredPrompt(t *testing.T) {
	llm := &fakeLLM{}
	qa := NewQAPipeline(llm, testLogger())

	docs := []*schema.Document{{Text: "varnish the coils before impregnation"}}
	if _, err := qa.ComposeProcessChainAnswer(context.Background(), "how is the motor built?", docs); err != nil {
		t.Fatalf("ComposeProcessChainAnswer: %v", err)
	}

	prompt := llm.prompts[0]
	if !containsAll(prompt,
		"generate a detailed process chain",
		"**Example Process Chain:**",
		"varnish the coils before impregnation",
		"Question: how is the motor built?",
	) {
		t.Errorf("process chain prompt missing expected pieces:\n%s", prompt)
	}
}

func TestComposeSourcesSummary_TruncatesToThreeContexts(t *testing.T) {
	llm := &fakeLLM{}
	qa := NewQAPipeline(llm, testLogger())

	scored := []*schema.ScoredDocument{
		scoredDoc("1-20230101.pdf", "first", 0.9, 0.8),
		scoredDoc("2-20230201.pdf", "second", 0.8, 0.7),
		scoredDoc("3-20230301.pdf", "third", 0.7, 0.6),
		scoredDoc("4-20230401.pdf", "fourth", 0.6, 0.5),
	}
	if _, err := qa.ComposeSourcesSummary(context.Background(), scored, false); err != nil {
		t.Fatalf("ComposeSourcesSummary: %v", err)
	}

	prompt := llm.prompts[0]
	if !containsAll(prompt, "1-20230101.pdf", "2-20230201.pdf", "3-20230301.pdf") {
		t.Errorf("summary prompt missing one of the first three sources:\n%s", prompt)
	}
	if strings.Contains(prompt, "4-20230401.pdf") {
		t.Errorf("summary prompt must not include a fourth source:\n%s", prompt)
	}
	if strings.Contains(prompt, "Source 4") {
		t.Errorf("summary prompt must stop at Source 3:\n%s", prompt)
	}
}

func TestComposeSourcesSummary_WeightedScoreToggle(t *testing.T) {
	scored := []*schema.ScoredDocument{scoredDoc("1-20230101.pdf", "ctx", 0.91, 0.55)}

	llm := &fakeLLM{}
	qa := NewQAPipeline(llm, testLogger())
	if _, err := qa.ComposeSourcesSummary(context.Background(), scored, true); err != nil {
		t.Fatalf("ComposeSourcesSummary(weighted): %v", err)
	}
	if !containsAll(llm.prompts[0], "Similarity Score: 0.9100", "Weighted Score: 0.5500", "Metadata: page 2") {
		t.Errorf("weighted summary prompt missing score lines:\n%s", llm.prompts[0])
	}

	llm = &fakeLLM{}
	qa = NewQAPipeline(llm, testLogger())
	if _, err := qa.ComposeSourcesSummary(context.Background(), scored, false); err != nil {
		t.Fatalf("ComposeSourcesSummary(similarity): %v", err)
	}
	if strings.Contains(llm.prompts[0], "Weighted Score") {
		t.Errorf("similarity-only summary must not mention weighted scores:\n%s", llm.prompts[0])
	}
}

func TestQAPipeline_WrapsLLMFailures(t *testing.T) {
	llm := &fakeLLM{err: errBoom}
	qa := NewQAPipeline(llm, testLogger())

	_, err := qa.ComposePlainAnswer(context.Background(), "q", nil)
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}

	_, err = qa.ComposeSourcesSummary(context.Background(), nil, false)
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected ErrGeneration from summary, got %v", err)
	}
}
