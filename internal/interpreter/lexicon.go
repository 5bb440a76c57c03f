package interpreter

import (
	"strings"

	"ocastro-backend/internal/intent"
	"ocastro-backend/internal/tasks"
)

type PriorityWords struct {
	Priority tasks.Priority
	Words    []string
}

type StatusWords struct {
	Status tasks.Status
	Words  []string
}

// Lexicon holds the words the extractors look for. Groups are checked in
// slice order and the first hit wins.
type Lexicon struct {
	CreateTriggers []string
	Priorities     []PriorityWords
	StatusTargets  []StatusWords
	// Connectives are trimmed from the edges of a task fragment only.
	Connectives []string
	// CommandWords are dropped anywhere in the fragment for that intent.
	CommandWords map[intent.Tag][]string
	Greetings    []string
}

func DefaultLexicon() Lexicon {
	return Lexicon{
		CreateTriggers: []string{"nova tarefa", "adicionar tarefa", "criar tarefa"},
		Priorities: []PriorityWords{
			{tasks.PriorityHigh, []string{"alta", "urgente", "importante"}},
			{tasks.PriorityLow, []string{"baixa", "pouca"}},
			{tasks.PriorityMedium, []string{"média", "media", "normal"}},
		},
		StatusTargets: []StatusWords{
			{tasks.StatusDoing, []string{"andamento", "fazendo", "progresso"}},
			{tasks.StatusDone, []string{"concluída", "concluida", "feita", "terminada"}},
			{tasks.StatusInbox, []string{"entrada", "pendente", "fazer"}},
		},
		Connectives: []string{
			"a", "o", "as", "os", "da", "do", "das", "dos", "de", "que", "como",
			"para", "pra", "na", "no", "em", "e", "um", "uma", "minha", "meu",
		},
		CommandWords: map[intent.Tag][]string{
			intent.CompleteTask: {"concluir", "conclua", "terminar", "termine", "feita", "feito", "riscar", "risque", "marcar", "marque", "tarefa"},
			intent.StartTask:    {"começar", "comece", "iniciar", "inicie", "fazendo", "estou", "mover", "mova", "tarefa"},
			intent.UpdateTaskStatus: {
				"status", "mudar", "mude", "alterar", "altere", "definir", "defina", "atualizar", "atualize", "tarefa",
			},
			intent.UpdateTaskDate: {
				"mudar", "mude", "alterar", "altere", "definir", "defina", "agendar", "agende",
				"prazo", "data", "dia", "tarefa",
			},
			intent.DeleteTask:      {"excluir", "exclua", "deletar", "delete", "remover", "remova", "apagar", "apague", "tarefa"},
			intent.UpdateTaskTitle: {"título", "titulo", "tarefa"},
		},
		Greetings: []string{"olá", "oi"},
	}
}

// lexicon is the compiled, read-only form of a Lexicon.
type lexicon struct {
	Lexicon
	connectives map[string]bool
	drop        map[intent.Tag]map[string]bool
	statusWords map[string]bool
}

func compileLexicon(l Lexicon) *lexicon {
	c := &lexicon{
		Lexicon:     l,
		connectives: toSet(l.Connectives),
		drop:        make(map[intent.Tag]map[string]bool, len(l.CommandWords)),
		statusWords: map[string]bool{},
	}
	for tag, words := range l.CommandWords {
		c.drop[tag] = toSet(words)
	}
	for _, g := range l.StatusTargets {
		for _, w := range g.Words {
			c.statusWords[strings.ToLower(w)] = true
		}
	}
	return c
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = true
	}
	return m
}

func (l *lexicon) matchStatus(text string) (tasks.Status, bool) {
	for _, g := range l.StatusTargets {
		for _, w := range g.Words {
			if strings.Contains(text, w) {
				return g.Status, true
			}
		}
	}
	return "", false
}

func (l *lexicon) isGreeting(text string) bool {
	for _, g := range l.Greetings {
		if strings.Contains(text, g) {
			return true
		}
	}
	return false
}
