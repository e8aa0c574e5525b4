package cli

import (
	"context"
	"errors"
	"log"

	"github.com/dmitrijs2005/chatkeeper/internal/client/client"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
)

// Login authenticates against the server and opens the live channel.
// The account stays locked until the user runs unlock.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.client.Login(ctx, email, password); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			log.Printf("Server unavailable")
		} else {
			log.Printf("Login unsuccessfull: %s", err.Error())
		}
		return err
	}
	log.Printf("Login successfull")

	if err := a.channel.Connect(ctx); err != nil {
		// request/response fallback covers sending; hints resume on reconnect
		log.Printf("Live channel unavailable, continuing without it")
	}

	return nil
}

// Unlock opens the account's encrypted private key container.
func (a *App) Unlock(ctx context.Context) error {
	password, err := GetPassword(a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Unlock(ctx, password); err != nil {
		if errors.Is(err, common.ErrAuthentication) {
			log.Printf("Unlock unsuccessfull: wrong password or damaged key data")
		} else {
			log.Printf("Unlock unsuccessfull: %s", err.Error())
		}
		return err
	}
	log.Printf("Identity unlocked")
	return nil
}

// Lock drops the unlocked private key and every cached conversation key.
func (a *App) Lock(ctx context.Context) error {
	a.engine.Close()
	a.session.Lock()
	a.chats = nil
	log.Printf("Identity locked")
	return nil
}

// Logout destroys the session entirely.
func (a *App) Logout(ctx context.Context) error {
	a.engine.Close()
	a.channel.Unsubscribe()
	a.session.Logout()
	a.client.Logout()
	a.chats = nil
	log.Printf("Logged out")
	return nil
}
