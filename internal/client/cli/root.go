package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	switch {
	case !a.isLoggedIn():
		return ""
	case !a.isUnlocked():
		return "(locked)"
	default:
		s := "unlocked"
		if active := a.engine.ActiveConversation(); active != "" {
			s = s + " " + active
		}
		return fmt.Sprintf("(%s)", s)
	}
}

func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to ChatKeeper CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.Login(ctx)

	runREPL(ctx, a, a.getStatus, scanner)
}
