package interpreter

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ocastro-backend/internal/dates"
	"ocastro-backend/internal/tasks"
)

// draft is the state threaded through the create-task pipeline.
type draft struct {
	Text     string
	Priority tasks.Priority
	Due      time.Time
	Title    string
}

type step func(draft) draft

func runPipeline(d draft, steps ...step) draft {
	for _, s := range steps {
		d = s(d)
	}
	return d
}

// priorityStep picks the first priority phrase ("prioridade alta",
// "com alta prioridade") and removes it from the text.
func priorityStep(groups []PriorityWords) step {
	return func(d draft) draft {
		for _, g := range groups {
			for _, kw := range g.Words {
				if !strings.Contains(d.Text, "prioridade "+kw) && !strings.Contains(d.Text, "com "+kw+" prioridade") {
					continue
				}
				q := regexp.QuoteMeta(kw)
				d.Text = regexp.MustCompile(`(?:com\s+)?prioridade\s+`+q).ReplaceAllString(d.Text, "")
				d.Text = regexp.MustCompile(`com\s+`+q+`\s+prioridade`).ReplaceAllString(d.Text, "")
				d.Priority = g.Priority
				return d
			}
		}
		return d
	}
}

var createDatePhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?:com\s+)?prazo\s+(?:de\s+)?(?:até\s+)?(?:amanhã|hoje)`),
	regexp.MustCompile(`(?:com\s+)?prazo\s+(?:de\s+)?até\s+o\s+dia\s+\d+(?:\s+de\s+\p{L}+)?`),
	regexp.MustCompile(`(?:para|até)\s+(?:amanhã|hoje)`),
	regexp.MustCompile(`(?:para|até)\s+(?:o\s+)?dia\s+\d{1,2}(?:\s+de\s+\p{L}+)?`),
	regexp.MustCompile(`(?:para|até)\s+(?:o\s+)?\d{1,2}\s+de\s+\p{L}+`),
}

// dueDateStep only looks for a date when a deadline word is present.
// Without one the task is due today.
func dueDateStep(parser *dates.Parser, today time.Time) step {
	return func(d draft) draft {
		d.Due = today
		if !strings.Contains(d.Text, "prazo") && !strings.Contains(d.Text, "para") && !strings.Contains(d.Text, "até") {
			return d
		}
		due, ok := parser.Parse(d.Text, today)
		if !ok {
			return d
		}
		d.Due = due
		for _, re := range createDatePhrases {
			d.Text = re.ReplaceAllString(d.Text, "")
		}
		return d
	}
}

var trailingConnective = regexp.MustCompile(`\s+(?:com|para)$`)

// titleStep takes everything after the trigger phrase.
func titleStep(triggers []string) step {
	quoted := make([]string, len(triggers))
	for i, t := range triggers {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re := regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)[\s,.;:!?-]+(.+)`)

	return func(d draft) draft {
		m := re.FindStringSubmatch(d.Text)
		if m == nil {
			return d
		}
		title := collapse(strings.Trim(m[1], " .,;:!?"))
		for {
			trimmed := trailingConnective.ReplaceAllString(title, "")
			if trimmed == title {
				break
			}
			title = trimmed
		}
		if title == "com" || title == "para" {
			title = ""
		}
		d.Title = capitalize(title)
		return d
	}
}

const punct = `.,;:!?"'“”`

// fragment isolates the task-title part of an utterance: drop words are
// removed anywhere, connectives only at the edges.
func fragment(text string, drop, connectives map[string]bool) string {
	var kept []string
	for _, f := range strings.Fields(text) {
		w := strings.Trim(f, punct)
		if w == "" || drop[w] {
			continue
		}
		kept = append(kept, w)
	}
	for len(kept) > 0 && connectives[kept[0]] {
		kept = kept[1:]
	}
	for len(kept) > 0 && connectives[kept[len(kept)-1]] {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, " ")
}

var dateUpdatePhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?:dia\s+)?\d{1,2}\s+de\s+\p{L}+`),
	regexp.MustCompile(`dia\s+\d{1,2}`),
	regexp.MustCompile(`amanhã|hoje`),
}

func stripDatePhrases(text string) string {
	for _, re := range dateUpdatePhrases {
		text = re.ReplaceAllString(text, " ")
	}
	return text
}

var (
	titleSeparator = regexp.MustCompile(`(?:altere|alterar|mude|mudar|troque|trocar|defina|definir)\s+o\s+título\s+para\s+`)
	titleFallback  = regexp.MustCompile(`título\s+(?:da\s+tarefa\s+|de\s+|do\s+|da\s+)?(.+?)\s+para\s+(.+)`)
)

// splitTitleChange returns the clause naming the task and the new title.
func splitTitleChange(text string) (clause, newTitle string, ok bool) {
	if loc := titleSeparator.FindStringIndex(text); loc != nil {
		return text[:loc[0]], text[loc[1]:], true
	}
	if m := titleFallback.FindStringSubmatch(text); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

var (
	learnAprenda = regexp.MustCompile(`aprenda\s+que\s+(.+?)\s+(?:significa|quer\s+dizer|é)\s+(.+)`)
	learnEntenda = regexp.MustCompile(`entenda\s+(?:que\s+)?(.+?)\s+(?:significa|quer\s+dizer|como)\s+(.+)`)
)

func parseLearn(text string) (phrase, meaning string, ok bool) {
	for _, re := range []*regexp.Regexp{learnAprenda, learnEntenda} {
		if m := re.FindStringSubmatch(text); m != nil {
			phrase = collapse(strings.Trim(m[1], punct+" "))
			meaning = collapse(strings.Trim(m[2], punct+" "))
			if phrase != "" && meaning != "" {
				return phrase, meaning, true
			}
		}
	}
	return "", "", false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
