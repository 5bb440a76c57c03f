package intent

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Condition holds when every substring in All is present, every group in
// Any has at least one member present and nothing in None is present.
// An empty Condition never holds.
type Condition struct {
	All  []string   `yaml:"all,omitempty"`
	Any  [][]string `yaml:"any,omitempty"`
	None []string   `yaml:"none,omitempty"`
}

func (c Condition) holds(text string) bool {
	if len(c.All) == 0 && len(c.Any) == 0 {
		return false
	}
	for _, s := range c.All {
		if !strings.Contains(text, s) {
			return false
		}
	}
	for _, group := range c.Any {
		if !containsAny(text, group) {
			return false
		}
	}
	return !containsAny(text, c.None)
}

// Rule selects Intent when any of its conditions holds.
type Rule struct {
	Intent Tag         `yaml:"intent"`
	When   []Condition `yaml:"when"`
}

// Matches reports whether the rule holds for an already lowercased text.
func (r Rule) Matches(text string) bool {
	for _, c := range r.When {
		if c.holds(text) {
			return true
		}
	}
	return false
}

func containsAny(text string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// DefaultRules is the pt-BR cascade. Order is precedence: several rules
// share keywords ("hoje", "para", "excluir") and the earlier rule wins.
func DefaultRules() []Rule {
	deleteVerbs := []string{"excluir", "deletar", "apagar", "limpar"}
	return []Rule{
		{LearnVocabulary, []Condition{
			{All: []string{"aprenda que"}},
			{All: []string{"entenda"}, Any: [][]string{{"significa", "como"}}},
		}},
		{CreateTask, []Condition{
			{Any: [][]string{{"nova tarefa", "adicionar tarefa", "criar tarefa"}}},
		}},
		{ListAllTasks, []Condition{
			{All: []string{"todas", "tarefas"}, None: deleteVerbs},
		}},
		{ListTodayTasks, []Condition{
			{All: []string{"hoje"}, Any: [][]string{{"tarefas", "agenda"}}, None: []string{"mudar"}},
		}},
		{DeleteLastTask, []Condition{
			{All: []string{"excluir"}, Any: [][]string{{"última", "ultima"}}},
		}},
		{CompleteTask, []Condition{
			{Any: [][]string{{"concluir", "terminar", "feita", "riscar"}}},
		}},
		{StartTask, []Condition{
			{Any: [][]string{{"começar", "iniciar", "fazendo"}}},
		}},
		{UpdateTaskStatus, []Condition{
			{All: []string{"status"}, Any: [][]string{{"mudar", "alterar", "definir", "atualizar"}}},
		}},
		{UpdateTaskDate, []Condition{
			{Any: [][]string{
				{"mudar", "alterar", "definir", "agendar", "prazo"},
				{"data", "prazo", "dia", "para"},
			}},
		}},
		{DeleteAllTasks, []Condition{
			{All: []string{"tarefas", "todas"}, Any: [][]string{{"excluir", "deletar", "limpar", "apagar"}}},
		}},
		{DeleteTask, []Condition{
			{Any: [][]string{{"excluir", "deletar", "remover", "apagar"}}},
		}},
		{UpdateTaskTitle, []Condition{
			{All: []string{"título"}, Any: [][]string{{"alterar", "mudar", "definir", "trocar"}}},
		}},
		{Identity, []Condition{
			{Any: [][]string{{"seu nome", "quem é você", "quem voce", "apresente", "sua capacidade"}}},
		}},
	}
}

// LoadRules reads a YAML rule table:
//
//	- intent: create_task
//	  when:
//	    - any: [["nova tarefa", "criar tarefa"]]
//
// Keywords are lowercased. Unknown tags, the unknown tag itself and rules
// without conditions are rejected.
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	for i := range rules {
		rule := &rules[i]
		if !rule.Intent.Valid() || rule.Intent == Unknown {
			return nil, fmt.Errorf("rule %d: invalid intent %q", i, rule.Intent)
		}
		if len(rule.When) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no conditions", i, rule.Intent)
		}
		for j := range rule.When {
			c := &rule.When[j]
			lowerAll(c.All)
			lowerAll(c.None)
			for _, g := range c.Any {
				lowerAll(g)
			}
		}
	}
	return rules, nil
}

func lowerAll(ss []string) {
	for i, s := range ss {
		ss[i] = strings.ToLower(s)
	}
}
