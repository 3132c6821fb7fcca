package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	app "oral-scan/internal/application"
	"oral-scan/internal/container"
	"oral-scan/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для предварительного анализа снимков полости рта.

📸 Отправьте фото, и я попробую найти поражения слизистой и оценить связь с системными заболеваниями.

📋 Команды:
/check — начать проверку
/history — последние проверки
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото полости рта
2️⃣ Бот проанализирует изображение
3️⃣ Вы получите результат: поражения, вероятности заболеваний и рекомендации

💡 Рекомендации:
• Снимайте при хорошем освещении
• Держите камеру близко и ровно
• Фото должно быть чётким

⚠️ Результат не является диагнозом. Обратитесь к врачу.`

	msgAwaitingPhoto   = "📸 Отправьте фото полости рта для проверки."
	msgStillAwaiting   = "📸 Жду фото полости рта. Отправьте снимок или /cancel для отмены."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото полости рта для проверки."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgBusy            = "⏳ Предыдущий снимок ещё обрабатывается."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgModelNotReady   = "⚠️ Модель сейчас недоступна. Попробуйте позже."
	msgHistoryError    = "⚠️ Не удалось получить историю."
)

// historyPreview число записей в ответе на /history
const historyPreview = 5

// Bot представляет Telegram-бота
type Bot struct {
	api          *tgbotapi.BotAPI
	http         *resty.Client
	fileEndpoint string // шаблон ссылки на файл: токен и путь
	users        *app.UserService
	detections   *app.DetectionService
	history      *app.HistoryService
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newBot(api, tgbotapi.FileEndpoint, c), nil
}

func newBot(api *tgbotapi.BotAPI, fileEndpoint string, c *container.Container) *Bot {
	log.WithField("account", api.Self.UserName).Info("Telegram bot authorized")

	return &Bot{
		api:          api,
		http:         resty.New().SetTimeout(30 * time.Second),
		fileEndpoint: fileEndpoint,
		users:        c.UserService,
		detections:   c.DetectionService,
		history:      c.HistoryService,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.WithError(err).Error("Error getting user")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	if user.State == entity.StateAwaitingPhoto {
		b.sendMessage(msg.Chat.ID, msgStillAwaiting)
		return
	}
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.setState(ctx, user, entity.StateMainMenu)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		if _, err := b.users.BeginCheck(ctx, user.ID, user.ChatID); err != nil {
			log.WithError(err).Error("Error saving user state")
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		if _, err := b.users.Cancel(ctx, user.ID, user.ChatID); err != nil {
			log.WithError(err).Error("Error saving user state")
		}
		b.sendMessage(msg.Chat.ID, msgCancelled)

	case "history":
		page, err := b.history.List(ctx, user.HistoryID(), historyPreview)
		if err != nil {
			log.WithError(err).WithField("user_id", user.HistoryID()).Error("Error listing history")
			b.sendMessage(msg.Chat.ID, msgHistoryError)
			return
		}
		b.sendMessage(msg.Chat.ID, formatHistory(page))

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if !b.detections.ModelReady() {
		b.sendMessage(msg.Chat.ID, msgModelNotReady)
		return
	}

	_, started, err := b.users.StartProcessing(ctx, user.ID, user.ChatID)
	if err != nil {
		log.WithError(err).Error("Error updating user state")
		return
	}
	if !started {
		b.sendMessage(msg.Chat.ID, msgBusy)
		return
	}
	defer b.setState(ctx, user, entity.StateMainMenu)

	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Берём файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		log.WithError(err).Error("Error downloading photo")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	result, err := b.detections.Analyze(ctx, app.Upload{
		Data:         imageData,
		Filename:     photo.FileUniqueID + ".jpg",
		UserID:       user.HistoryID(),
		IncludeImage: true,
	})
	if err != nil {
		log.WithError(err).WithField("user_id", user.HistoryID()).Error("Error analyzing photo")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	if highlighted := decodeDataURL(result.ImageURL); result.HasDetections() && len(highlighted) > 0 {
		b.sendPhoto(msg.Chat.ID, highlighted, formatResult(result))
		return
	}
	b.sendMessage(msg.Chat.ID, formatResult(result))
}

func (b *Bot) setState(ctx context.Context, user *entity.User, state entity.UserState) {
	if _, err := b.users.SetState(ctx, user.ID, user.ChatID, state); err != nil {
		log.WithError(err).Error("Error saving user state")
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	resp, err := b.http.R().SetContext(ctx).Get(fmt.Sprintf(b.fileEndpoint, b.api.Token, file.FilePath))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode())
	}

	return resp.Body(), nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Error sending message")
	}
}

// sendPhoto отправляет фото с подписью
func (b *Bot) sendPhoto(chatID int64, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "result.jpg", Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		log.WithError(err).Error("Error sending photo")
	}
}

func decodeDataURL(url string) []byte {
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		return nil
	}
	return data
}
