package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAlerter implements the notify.Alerter interface using the
// gopkg.in/telebot.v3 library. It pushes operational alerts (quota
// exhaustion, failed cycles) to a single admin chat.
type TelebotAlerter struct {
	bot    *telebot.Bot
	chatID int64
}

func NewTelebotAlerter(token string, chatID int64) (*TelebotAlerter, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &TelebotAlerter{bot: bot, chatID: chatID}, nil
}

// Alert sends a plain-text message to the configured admin chat.
func (a *TelebotAlerter) Alert(text string) error {
	recipient := &telebot.User{ID: a.chatID}
	_, err := a.bot.Send(recipient, text)
	return err
}
