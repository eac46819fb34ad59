package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/gophchat/internal/client/storage"
	"github.com/iudanet/gophchat/internal/models"
	pkgapi "github.com/iudanet/gophchat/pkg/api"
)

const timeLayout = "2006-01-02 15:04"

func (c *Cli) runUsers(ctx context.Context) error {
	session, err := c.session(ctx)
	if err != nil {
		return err
	}

	users, err := c.api.Users(ctx, session.Token)
	if err != nil {
		return explain(err)
	}

	// Кешируем контакты, чтобы history/send принимали email
	contacts := make([]storage.Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, storage.Contact{ID: u.ID, FullName: u.FullName, Email: u.Email})
	}
	if err := c.contacts.ReplaceContacts(ctx, contacts); err != nil {
		return fmt.Errorf("failed to cache contacts: %w", err)
	}

	if len(users) == 0 {
		c.io.Println("No other users yet.")
		return nil
	}

	c.io.Printf("%-8s %-24s %-32s %s\n", "STATUS", "NAME", "EMAIL", "ID")
	for _, u := range users {
		status := "offline"
		if u.Online {
			status = "online"
		}
		c.io.Printf("%-8s %-24s %-32s %s\n", status, u.FullName, u.Email, u.ID)
	}

	return nil
}

func (c *Cli) runHistory(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: gophchat history <peer>")
	}

	session, err := c.session(ctx)
	if err != nil {
		return err
	}

	peerID, peerName, err := c.resolvePeer(ctx, args[0])
	if err != nil {
		return err
	}

	messages, err := c.api.History(ctx, session.Token, peerID)
	if err != nil {
		return explain(err)
	}

	if len(messages) == 0 {
		c.io.Printf("No messages with %s yet.\n", peerName)
		return nil
	}

	for _, msg := range messages {
		c.printMessage(ctx, session, msg)
	}

	return nil
}

func (c *Cli) runSend(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: gophchat send <peer> <text...>")
	}

	session, err := c.session(ctx)
	if err != nil {
		return err
	}

	peerID, peerName, err := c.resolvePeer(ctx, args[0])
	if err != nil {
		return err
	}

	msg, err := c.api.Send(ctx, session.Token, peerID, pkgapi.SendMessageRequest{
		Text: strings.Join(args[1:], " "),
	})
	if err != nil {
		return explain(err)
	}

	c.io.Printf("✓ Sent to %s (id %d)\n", peerName, msg.ID)
	return nil
}

// runListen печатает входящие сообщения до отмены контекста
func (c *Cli) runListen(ctx context.Context) error {
	session, err := c.session(ctx)
	if err != nil {
		return err
	}

	c.io.Println("Listening for messages, press Ctrl+C to stop...")

	err = c.api.Listen(ctx, session.Token, func(evt models.Event) {
		if evt.Type != models.EventNewMessage {
			return
		}
		c.printMessage(ctx, session, evt.Payload)
	})
	if err != nil {
		return explain(err)
	}

	return nil
}

func (c *Cli) runAvatar(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: gophchat avatar <file>")
	}

	session, err := c.session(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	// Тип файла определяет сервер по содержимому
	user, err := c.api.UpdateProfilePic(ctx, session.Token, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		return explain(err)
	}

	c.io.Println("✓ Profile picture updated")
	c.io.Printf("URL: %s\n", user.ProfilePic)
	return nil
}

func (c *Cli) printMessage(ctx context.Context, self *storage.AuthData, msg models.Message) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s:", msg.CreatedAt.Local().Format(timeLayout), c.displayName(ctx, self, msg.SenderID))
	if msg.Text != "" {
		b.WriteString(" " + msg.Text)
	}
	if msg.ImageURL != "" {
		b.WriteString(" [image: " + msg.ImageURL + "]")
	}
	c.io.Println(b.String())
}
