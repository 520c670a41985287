// Package telegram talks to the Bot API on behalf of the game backend.
package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"tactictoe/internal/domain"
)

const (
	invitationTitle  = "Invitation to the game!"
	invitationButton = "To the fight"
	thumbURL         = "https://ipfs.io/ipfs/bafkreidmkchryuy533s6vfcfsndjajnie2czaa64bp6sygz7zs4wksqbbq"
	thumbSize        = 300
)

var ErrEmptyResult = errors.New("telegram: empty result")

// Inviter prepares inline invitation messages that the Mini App can share
// with Telegram.WebApp.shareMessage.
type Inviter struct {
	bot         *tgbotapi.BotAPI
	botUsername string
}

// NewInviter authorizes against the Bot API.
func NewInviter(token, botUsername string) (*Inviter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return NewInviterWithBot(bot, botUsername), nil
}

func NewInviterWithBot(bot *tgbotapi.BotAPI, botUsername string) *Inviter {
	return &Inviter{bot: bot, botUsername: botUsername}
}

// InvitationText renders the message body for a session's game type.
func InvitationText(inviter string, s *domain.Session) string {
	switch s.GameType {
	case domain.GameTypeXO:
		cond := "five in a row"
		if s.WinLines == 6 {
			cond = "six in a row"
		}
		return fmt.Sprintf("XO X%d:\n%s invites you to join the endless game of Tic-tac-toe.\nWinning condition: %s.",
			s.WinLines, inviter, cond)
	case domain.GameTypeDot:
		return fmt.Sprintf("Dot:\n%s invites you to join the game of Dot.\nField size: %dx%d",
			inviter, s.DotSize, s.DotSize)
	default:
		return fmt.Sprintf("Blot:\n%s invites you to join the game of Blot.\nField size: %dx%d",
			inviter, s.BlotSize, s.BlotSize)
	}
}

// StartLink opens the Mini App straight into the session lobby.
func (i *Inviter) StartLink(sessionID string, tgUserID int64) string {
	return fmt.Sprintf("https://t.me/%s?startapp=lobby_%s__ref=%d", i.botUsername, sessionID, tgUserID)
}

// PrepareInvitation stores an inline message for tgUserID via
// savePreparedInlineMessage and returns its id.
func (i *Inviter) PrepareInvitation(tgUserID int64, inviter string, s *domain.Session) (string, error) {
	articleID := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	article := tgbotapi.NewInlineQueryResultArticle(articleID, invitationTitle, InvitationText(inviter, s))
	article.ThumbURL = thumbURL
	article.ThumbWidth = thumbSize
	article.ThumbHeight = thumbSize
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(invitationButton, i.StartLink(s.ID, tgUserID)),
		),
	)
	article.ReplyMarkup = &keyboard

	result, err := json.Marshal(article)
	if err != nil {
		return "", err
	}

	params := tgbotapi.Params{
		"user_id":           strconv.FormatInt(tgUserID, 10),
		"result":            string(result),
		"allow_user_chats":  "true",
		"allow_group_chats": "true",
	}
	resp, err := i.bot.MakeRequest("savePreparedInlineMessage", params)
	if err != nil {
		return "", fmt.Errorf("savePreparedInlineMessage: %w", err)
	}

	var prepared struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Result, &prepared); err != nil {
		return "", fmt.Errorf("decode prepared message: %w", err)
	}
	if prepared.ID == "" {
		return "", ErrEmptyResult
	}
	return prepared.ID, nil
}
