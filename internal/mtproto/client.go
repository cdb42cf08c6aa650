// Package mtproto adapts the gotd Telegram client to the narrow provider
// port the phone login service consumes. Every operation spins up a
// short-lived client around an in-memory session, runs one round-trip under
// a bounded timeout, and hands the (possibly refreshed) session bytes back
// to the caller for re-persistence.
package mtproto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"

	"almudeer-service/internal/domain/telegramphone"
	xerrors "almudeer-service/internal/pkg/errors"
)

type Client struct {
	apiID   int
	apiHash string
	timeout time.Duration
	logger  *zap.Logger
}

func NewClient(apiID int, apiHash string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		apiID:   apiID,
		apiHash: apiHash,
		timeout: timeout,
		logger:  logger,
	}
}

// run executes fn inside a connected gotd client bound to store.
func (c *Client) run(ctx context.Context, store *memorySession, fn func(ctx context.Context, client *telegram.Client) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: store,
		Logger:         c.logger.Named("gotd"),
		NoUpdates:      true,
	})

	if err := client.Run(ctx, func(ctx context.Context) error {
		return fn(ctx, client)
	}); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: telegram round-trip timed out", xerrors.ErrProvider)
		}
		return err
	}
	return nil
}

// SendCode requests a login code for the phone number. The returned session
// bytes capture the DC negotiation state and must travel with the code hash
// into SignIn.
func (c *Client) SendCode(ctx context.Context, phoneNumber string) (*telegramphone.SentCode, error) {
	store := &memorySession{}

	var codeHash string
	err := c.run(ctx, store, func(ctx context.Context, client *telegram.Client) error {
		sent, err := client.Auth().SendCode(ctx, phoneNumber, auth.SendCodeOptions{})
		if err != nil {
			return err
		}
		code, ok := sent.(*tg.AuthSentCode)
		if !ok {
			return fmt.Errorf("unexpected sent code type %T", sent)
		}
		codeHash = code.PhoneCodeHash
		return nil
	})
	if err != nil {
		return nil, c.mapError(err)
	}

	return &telegramphone.SentCode{
		PhoneCodeHash: codeHash,
		Session:       store.Bytes(),
	}, nil
}

// SignIn completes the login with the code the user received. On success it
// returns the remote profile and the fully authorized session bytes.
func (c *Client) SignIn(ctx context.Context, phoneNumber, code, codeHash string, sessionData []byte) (*telegramphone.Account, []byte, error) {
	store := &memorySession{data: sessionData}

	var account *telegramphone.Account
	err := c.run(ctx, store, func(ctx context.Context, client *telegram.Client) error {
		if _, err := client.Auth().SignIn(ctx, phoneNumber, code, codeHash); err != nil {
			return err
		}
		me, err := client.Self(ctx)
		if err != nil {
			return err
		}
		account = accountFromUser(me)
		return nil
	})
	if err != nil {
		return nil, nil, c.mapError(err)
	}
	return account, store.Bytes(), nil
}

// GetMe re-authenticates with a stored session and returns the profile.
func (c *Client) GetMe(ctx context.Context, sessionData []byte) (*telegramphone.Account, []byte, error) {
	store := &memorySession{data: sessionData}

	var account *telegramphone.Account
	err := c.run(ctx, store, func(ctx context.Context, client *telegram.Client) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return err
		}
		if !status.Authorized {
			return xerrors.ErrSessionExpired
		}
		me, err := client.Self(ctx)
		if err != nil {
			return err
		}
		account = accountFromUser(me)
		return nil
	})
	if err != nil {
		return nil, nil, c.mapError(err)
	}
	return account, store.Bytes(), nil
}

// LogOut revokes the session on Telegram's side. A session that is already
// dead is not an error; disconnect stays idempotent.
func (c *Client) LogOut(ctx context.Context, sessionData []byte) error {
	store := &memorySession{data: sessionData}

	err := c.run(ctx, store, func(ctx context.Context, client *telegram.Client) error {
		_, err := client.API().AuthLogOut(ctx)
		return err
	})
	if err != nil {
		mapped := c.mapError(err)
		if errors.Is(mapped, xerrors.ErrSessionExpired) {
			return nil
		}
		return mapped
	}
	return nil
}

// SendMessage sends text to a username or phone on the stored session.
func (c *Client) SendMessage(ctx context.Context, sessionData []byte, recipient, text string) (int, []byte, error) {
	store := &memorySession{data: sessionData}

	var messageID int
	err := c.run(ctx, store, func(ctx context.Context, client *telegram.Client) error {
		sender := message.NewSender(client.API())
		upd, err := sender.Resolve(recipient).Text(ctx, text)
		if err != nil {
			return err
		}
		messageID = sentMessageID(upd)
		return nil
	})
	if err != nil {
		return 0, nil, c.mapError(err)
	}
	return messageID, store.Bytes(), nil
}

// mapError folds gotd/Telegram errors into the service error taxonomy.
// Raw provider text never crosses this boundary.
func (c *Client) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, xerrors.ErrSessionExpired):
		return xerrors.ErrSessionExpired
	case errors.Is(err, xerrors.ErrProvider):
		return err
	case errors.Is(err, auth.ErrPasswordAuthNeeded):
		return xerrors.ErrTwoFactorRequired
	case tgerr.Is(err, "PHONE_CODE_INVALID"):
		return xerrors.ErrInvalidCode
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return xerrors.ErrCodeExpired
	case tgerr.Is(err, "PHONE_NUMBER_UNOCCUPIED"):
		return xerrors.ErrPhoneUnoccupied
	case tgerr.Is(err, "AUTH_KEY_UNREGISTERED", "SESSION_REVOKED", "SESSION_EXPIRED"):
		return xerrors.ErrSessionExpired
	}

	if d, ok := tgerr.AsFloodWait(err); ok {
		return &xerrors.FloodWaitError{Seconds: int(d.Seconds())}
	}

	var regErr *auth.SignUpRequired
	if errors.As(err, &regErr) {
		return xerrors.ErrPhoneUnoccupied
	}

	c.logger.Warn("telegram provider error", zap.Error(err))
	return fmt.Errorf("%w: %v", xerrors.ErrProvider, err)
}

func accountFromUser(u *tg.User) *telegramphone.Account {
	return &telegramphone.Account{
		ID:        u.ID,
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// sentMessageID digs the new message id out of the updates envelope.
func sentMessageID(upd tg.UpdatesClass) int {
	switch u := upd.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID
	case *tg.Updates:
		for _, inner := range u.Updates {
			if m, ok := inner.(*tg.UpdateMessageID); ok {
				return m.ID
			}
		}
	}
	return 0
}
