package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidInitData = errors.New("invalid init data")

// maxInitDataAge bounds replay of captured init_data.
const maxInitDataAge = time.Hour

// TelegramUser is the "user" field of WebApp init_data.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	PhotoURL  string `json:"photo_url"`
}

// webAppSecret derives the key Telegram uses to sign WebApp init_data.
func webAppSecret(botToken string) []byte {
	h := hmac.New(sha256.New, []byte("WebAppData"))
	h.Write([]byte(botToken))
	return h.Sum(nil)
}

// dataCheckString joins every field except hash as sorted key=value lines.
func dataCheckString(values url.Values) string {
	var dataCheck []string
	for k, v := range values {
		if k == "hash" {
			continue
		}
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)
	return strings.Join(dataCheck, "\n")
}

// SignInitData computes the hash Telegram would attach to values.
func SignInitData(values url.Values, botToken string) string {
	h := hmac.New(sha256.New, webAppSecret(botToken))
	h.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateTelegramInitData verifies the init_data signature and freshness and
// returns the embedded user.
func ValidateTelegramInitData(initData, botToken string, now time.Time) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	provided, err := hex.DecodeString(values.Get("hash"))
	if err != nil || len(provided) == 0 {
		return nil, ErrInvalidInitData
	}
	expected, _ := hex.DecodeString(SignInitData(values, botToken))
	if !hmac.Equal(expected, provided) {
		return nil, ErrInvalidInitData
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInvalidInitData
	}
	age := now.Sub(time.Unix(authDate, 0))
	// small clock skew is tolerated
	if age > maxInitDataAge || age < -5*time.Minute {
		return nil, ErrInvalidInitData
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, ErrInvalidInitData
	}
	return &user, nil
}

// ParseDevInitData accepts a bare numeric Telegram id. Only used with DEV_MODE.
func ParseDevInitData(initData string) (*TelegramUser, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(initData), 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &TelegramUser{ID: id, Username: "dev" + strconv.FormatInt(id, 10), FirstName: "Dev"}, true
}
