package entity

import "strconv"

// UserState состояние пользователя в диалоге с ботом
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание снимка полости рта
	StateProcessing    UserState = "processing"     // Идёт анализ снимка
)

// User представляет пользователя Telegram-бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// HistoryID возвращает идентификатор, под которым хранится история пользователя бота.
func (u *User) HistoryID() string {
	return "tg-" + strconv.FormatInt(u.ID, 10)
}

// IsBusy сообщает, что снимок пользователя ещё обрабатывается.
func (u *User) IsBusy() bool {
	return u.State == StateProcessing
}
