package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

// Chats lists the account's conversations and remembers the ordering, so
// later commands can refer to a conversation by its list number.
func (a *App) Chats(ctx context.Context) error {
	chats, err := a.client.ListConversations(ctx)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}
	a.chats = chats

	if len(chats) == 0 {
		fmt.Fprintln(a.out, "No conversations")
		return nil
	}
	for i, c := range chats {
		fmt.Fprintf(a.out, "%d. %s (%s)\n", i+1, c.Name, c.ID)
	}
	return nil
}

// resolveConversation turns a command argument into a conversation id.
// A small number is taken as an index into the last chats listing,
// anything else as a raw id.
func (a *App) resolveConversation(arg string) string {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(a.chats) {
			return a.chats[n-1].ID
		}
		return ""
	}
	return arg
}

// Open switches the active conversation and renders its first page.
func (a *App) Open(ctx context.Context, arg string) error {
	id := a.resolveConversation(arg)
	if id == "" {
		log.Printf("Unknown conversation: %s", arg)
		return nil
	}

	if err := a.engine.Open(ctx, id); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}

	a.printMessages(id)
	return nil
}
