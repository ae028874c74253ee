package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger sends replies to a chat
type Messenger interface {
	SendMessage(chatID int64, text string) error
	SendMarkdown(chatID int64, text string) error
	SendPhoto(chatID int64, photoURL string, caption string) error
}

// Client wraps the Telegram Bot API for sending messages
type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient creates a new Telegram client with the given bot token
func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	return &Client{api: api}, nil
}

// GetUpdates returns a channel for receiving updates from Telegram
func (c *Client) GetUpdates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return c.api.GetUpdatesChan(u)
}

// StopReceivingUpdates stops the update channel
func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

// SendMessage sends a plain text message to a chat
func (c *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := c.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMarkdown sends a message with MarkdownV2 formatting to a chat
func (c *Client) SendMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	_, err := c.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send markdown message: %w", err)
	}
	return nil
}

// SendPhoto sends a photo with a MarkdownV2 caption to a chat
func (c *Client) SendPhoto(chatID int64, photoURL string, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := c.api.Send(photo)
	if err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}
