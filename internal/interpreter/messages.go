package interpreter

import (
	"fmt"
	"strings"
	"time"
)

const (
	msgNoTitle          = "Entendi que você quer criar uma tarefa, mas não ouvi o título claramente."
	msgNoTasksToday     = "Você não tem nenhuma tarefa agendada para hoje."
	msgNoPendingTasks   = "Você não tem tarefas pendentes."
	msgNothingToDelete  = "Você não tem tarefas para excluir."
	msgDeleteAllFailed  = "Não consegui excluir suas tarefas agora. Nenhuma tarefa foi removida."
	msgAskStatus        = "Para qual status você quer mover a tarefa? Entrada, Fazendo ou Concluída?"
	msgAskNewTitle      = "Qual deve ser o novo título da tarefa? Diga, por exemplo: altere o título para comprar leite."
	msgLearnUsage       = "Para me ensinar, diga: aprenda que <palavra> significa <comando>."
	msgLearnUnavailable = "Não consigo aprender palavras novas agora."
	msgGreeting         = "Olá! Como posso ajudar com suas tarefas hoje?"
	msgUnknown          = "Desculpe, não entendi o comando. Você pode criar tarefas, listar ou concluir."
	msgIdentity         = "Eu sou o Ocastro, seu assistente de tarefas por voz. Posso criar, listar, concluir, " +
		"iniciar, reagendar, renomear e excluir tarefas, e aprender palavras novas com você."
)

func msgCreated(title, priority, when string) string {
	return fmt.Sprintf("Criei a tarefa %s com prioridade %s para %s.", title, priority, when)
}

func msgTodayList(count int, titles []string) string {
	return fmt.Sprintf("Você tem %d %s para hoje. As principais são: %s.", count, plural(count, "tarefa", "tarefas"), strings.Join(titles, ", "))
}

func msgPendingList(count int, titles []string) string {
	return fmt.Sprintf("Você tem %d %s. As mais próximas são: %s.", count, plural(count, "tarefa pendente", "tarefas pendentes"), strings.Join(titles, ", "))
}

func msgCompleted(title string) string {
	return fmt.Sprintf("Pronto! Marquei a tarefa %s como concluída.", title)
}

func msgStarted(title string) string {
	return fmt.Sprintf("Ótimo. Movi %s para Fazendo.", title)
}

func msgStatusUpdated(title, label string) string {
	return fmt.Sprintf("Atualizei o status da tarefa %s para %s.", title, label)
}

func msgDateUpdated(title string, due time.Time) string {
	return fmt.Sprintf("Atualizei a data da tarefa %s para %s.", title, due.Format("02/01"))
}

func msgDateNotUnderstood(title string) string {
	return fmt.Sprintf("Encontrei a tarefa %s, mas não entendi a nova data.", title)
}

func msgRenamed(oldTitle, newTitle string) string {
	return fmt.Sprintf("Renomeei a tarefa %s para %s.", oldTitle, newTitle)
}

func msgDeleted(title string) string {
	return fmt.Sprintf("Excluí a tarefa %s.", title)
}

func msgDeletedLast(title string) string {
	return fmt.Sprintf("Excluí a última tarefa criada: %s.", title)
}

func msgDeletedAll(count int) string {
	return fmt.Sprintf("Excluí %d %s.", count, plural(count, "tarefa", "tarefas"))
}

func msgNotFound(fragment string) string {
	return fmt.Sprintf("Não encontrei a tarefa %q.", fragment)
}

func msgWhichTask(verb string) string {
	return fmt.Sprintf("Qual tarefa você quer %s?", verb)
}

func msgLearned(phrase, meaning string) string {
	return fmt.Sprintf("Entendi! Agora %q significa %q.", phrase, meaning)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
