package interpreter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ocastro-backend/internal/dates"
	"ocastro-backend/internal/intent"
	"ocastro-backend/internal/tasks"
)

func TestFragment(t *testing.T) {
	lex := compileLexicon(DefaultLexicon())

	tests := []struct {
		tag  intent.Tag
		text string
		want string
	}{
		{intent.CompleteTask, "concluir a tarefa de revisar o código", "revisar o código"},
		{intent.CompleteTask, "marque comprar pão como feita.", "comprar pão"},
		{intent.DeleteTask, "apague a tarefa", ""},
		{intent.DeleteTask, "remover minha tarefa lavar o carro!", "lavar o carro"},
		{intent.StartTask, "estou fazendo o relatório", "relatório"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fragment(tt.text, lex.drop[tt.tag], lex.connectives), tt.text)
	}
}

func TestPriorityStep(t *testing.T) {
	step := priorityStep(DefaultLexicon().Priorities)

	tests := []struct {
		text     string
		priority tasks.Priority
		rest     string
	}{
		{"nova tarefa x com prioridade alta", tasks.PriorityHigh, "nova tarefa x "},
		{"nova tarefa x com baixa prioridade", tasks.PriorityLow, "nova tarefa x "},
		{"nova tarefa x prioridade normal", tasks.PriorityMedium, "nova tarefa x "},
		{"nova tarefa urgente", "", "nova tarefa urgente"},
	}
	for _, tt := range tests {
		got := step(draft{Text: tt.text})
		assert.Equal(t, tt.priority, got.Priority, tt.text)
		assert.Equal(t, tt.rest, got.Text, tt.text)
	}
}

func TestDueDateStep(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	step := dueDateStep(dates.NewParser(dates.DefaultMonths()), today)

	got := step(draft{Text: "nova tarefa x para amanhã"})
	assert.Equal(t, today.AddDate(0, 0, 1), got.Due)
	assert.Equal(t, "nova tarefa x ", got.Text)

	got = step(draft{Text: "nova tarefa x amanhã"})
	assert.Equal(t, today, got.Due, "no deadline word")
	assert.Equal(t, "nova tarefa x amanhã", got.Text)

	got = step(draft{Text: "nova tarefa ligar para o banco"})
	assert.Equal(t, today, got.Due)
	assert.Equal(t, "nova tarefa ligar para o banco", got.Text)
}

func TestTitleStep_TrailingConnectives(t *testing.T) {
	step := titleStep(DefaultLexicon().CreateTriggers)

	assert.Equal(t, "Comprar pão", step(draft{Text: "nova tarefa comprar pão com"}).Title)
	assert.Equal(t, "Comprar pão", step(draft{Text: "nova tarefa comprar pão para com"}).Title)
	assert.Equal(t, "", step(draft{Text: "nova tarefa com"}).Title)
}

func TestTitleStep_PunctuationAfterTrigger(t *testing.T) {
	step := titleStep(DefaultLexicon().CreateTriggers)

	assert.Equal(t, "Comprar pão", step(draft{Text: "nova tarefa, comprar pão."}).Title)
	assert.Equal(t, "Comprar pão", step(draft{Text: "nova tarefa: comprar pão"}).Title)
	assert.Equal(t, "Comprar pão", step(draft{Text: "nova tarefa comprar pão"}).Title)
	assert.Equal(t, "", step(draft{Text: "nova tarefa."}).Title)
}

func TestSplitTitleChange(t *testing.T) {
	tests := []struct {
		text, clause, newTitle string
		ok                     bool
	}{
		{"na tarefa x, altere o título para y", "na tarefa x, ", "y", true},
		{"mude o título da tarefa x para y z", "x", "y z", true},
		{"mudar o título", "", "", false},
	}
	for _, tt := range tests {
		clause, newTitle, ok := splitTitleChange(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.clause, clause, tt.text)
		assert.Equal(t, tt.newTitle, newTitle, tt.text)
	}
}

func TestParseLearn(t *testing.T) {
	tests := []struct {
		text, phrase, meaning string
		ok                    bool
	}{
		{"aprenda que detonar significa excluir", "detonar", "excluir", true},
		{"aprenda que lava louça quer dizer nova tarefa lavar louça", "lava louça", "nova tarefa lavar louça", true},
		{"entenda que bora como começar.", "bora", "começar", true},
		{"aprenda que nada", "", "", false},
	}
	for _, tt := range tests {
		phrase, meaning, ok := parseLearn(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.phrase, phrase, tt.text)
		assert.Equal(t, tt.meaning, meaning, tt.text)
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Ótimo dia", capitalize("ótimo dia"))
	assert.Equal(t, "", capitalize(""))
}
