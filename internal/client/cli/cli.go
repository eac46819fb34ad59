package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/gophchat/internal/client/api"
	"github.com/iudanet/gophchat/internal/client/iocli"
	"github.com/iudanet/gophchat/internal/client/storage"
	"github.com/iudanet/gophchat/internal/models"
	pkgapi "github.com/iudanet/gophchat/pkg/api"
)

// ChatAPI is the part of the server API used by chat commands
type ChatAPI interface {
	Users(ctx context.Context, token string) ([]models.UserSummary, error)
	History(ctx context.Context, token, peerID string) ([]models.Message, error)
	Send(ctx context.Context, token, peerID string, req pkgapi.SendMessageRequest) (*models.Message, error)
	UpdateProfilePic(ctx context.Context, token, image string) (*models.User, error)
	Listen(ctx context.Context, token string, handle func(models.Event)) error
}

// AuthService manages the local session
type AuthService interface {
	Signup(ctx context.Context, fullName, email, password string) (*storage.AuthData, error)
	Login(ctx context.Context, email, password string) (*storage.AuthData, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*storage.AuthData, error)
}

type Cli struct {
	api      ChatAPI
	auth     AuthService
	contacts storage.ContactStorage
	io       iocli.IO
}

func New(chatAPI ChatAPI, authService AuthService, contacts storage.ContactStorage, io iocli.IO) *Cli {
	return &Cli{
		api:      chatAPI,
		auth:     authService,
		contacts: contacts,
		io:       io,
	}
}

// Run executes a single command
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return c.runSignup(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "users":
		return c.runUsers(ctx)
	case "history":
		return c.runHistory(ctx, args)
	case "send":
		return c.runSend(ctx, args)
	case "listen":
		return c.runListen(ctx)
	case "avatar":
		return c.runAvatar(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// session возвращает токен текущей сессии
func (c *Cli) session(ctx context.Context) (*storage.AuthData, error) {
	return c.auth.Session(ctx)
}

// explain добавляет подсказку к ошибке авторизации от сервера
func explain(err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("%w (run 'gophchat login' again)", err)
	}
	return err
}

// resolvePeer принимает id или email, email ищется в локальном кеше контактов
func (c *Cli) resolvePeer(ctx context.Context, key string) (string, string, error) {
	contact, err := c.contacts.FindContact(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrContactNotFound) {
			// Неизвестный ключ считаем id, сервер сам ответит 404
			return key, key, nil
		}
		return "", "", fmt.Errorf("failed to look up contact: %w", err)
	}
	return contact.ID, contact.FullName, nil
}

// displayName возвращает имя отправителя для вывода
func (c *Cli) displayName(ctx context.Context, self *storage.AuthData, userID string) string {
	if userID == self.UserID {
		return "you"
	}
	contact, err := c.contacts.GetContact(ctx, userID)
	if err != nil || contact.FullName == "" {
		return userID
	}
	return contact.FullName
}

func PrintUsage() {
	fmt.Println("GophChat Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gophchat [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version                    Show version information")
	fmt.Println("  --server URL                 Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH                    Path to local database (default: gophchat-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  signup                  Create an account")
	fmt.Println("  login                   Login to server")
	fmt.Println("  logout                  Logout and delete the local session")
	fmt.Println("  status                  Show authentication status")
	fmt.Println("  users                   List users with online status")
	fmt.Println("  history <peer>          Show conversation with a user (id or email)")
	fmt.Println("  send <peer> <text...>   Send a message")
	fmt.Println("  listen                  Print incoming messages until Ctrl+C")
	fmt.Println("  avatar <file>           Upload a profile picture")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  gophchat signup")
	fmt.Println("  gophchat users")
	fmt.Println("  gophchat send bob@example.com hello there")
	fmt.Println("  gophchat --server https://chat.example.com listen")
}
