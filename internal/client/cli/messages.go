package cli

import (
	"context"
	"fmt"
	"log"
)

// printMessages renders the current view of a conversation, oldest first.
// Messages that failed authenticated decryption are shown as placeholders,
// never as content.
func (a *App) printMessages(conversationID string) {
	msgs := a.engine.GetMessages(conversationID)
	if !a.engine.Exhausted(conversationID) {
		fmt.Fprintln(a.out, "(type 'older' for earlier messages)")
	}
	for _, m := range msgs {
		who := m.SenderID
		if who == a.session.UserID() {
			who = "me"
		}
		text := "<message could not be decrypted>"
		if m.DecryptOk {
			text = m.Text
		}
		fmt.Fprintf(a.out, "%s [%s] %s: %s\n", m.ID, m.Timestamp.Local().Format("15:04"), who, text)
	}
}

// Show re-renders the active conversation.
func (a *App) Show(ctx context.Context) error {
	active := a.engine.ActiveConversation()
	if active == "" {
		log.Printf("No conversation open")
		return nil
	}
	a.printMessages(active)
	return nil
}

// Send encrypts and transmits a message in the active conversation.
func (a *App) Send(ctx context.Context, text string) error {
	active := a.engine.ActiveConversation()
	if active == "" {
		log.Printf("No conversation open")
		return nil
	}

	if err := a.engine.Send(ctx, active, text); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}
	return nil
}

// Older loads one more page of history for the active conversation.
func (a *App) Older(ctx context.Context) error {
	active := a.engine.ActiveConversation()
	if active == "" {
		log.Printf("No conversation open")
		return nil
	}

	if a.engine.Exhausted(active) {
		fmt.Fprintln(a.out, "Beginning of conversation")
		return nil
	}
	if err := a.engine.LoadOlder(ctx, active); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}
	return nil
}

// Delete removes a message by id, remotely first.
func (a *App) Delete(ctx context.Context, messageID string) error {
	active := a.engine.ActiveConversation()
	if active == "" {
		log.Printf("No conversation open")
		return nil
	}

	if err := a.engine.Delete(ctx, active, messageID); err != nil {
		log.Printf("Error: %s", err.Error())
		return err
	}
	return nil
}
