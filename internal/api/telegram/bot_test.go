package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "oral-scan/internal/application"
	"oral-scan/internal/container"
	"oral-scan/internal/domain/entity"
	"oral-scan/internal/infrastructure/recommend"
	"oral-scan/internal/infrastructure/storage"
	"oral-scan/internal/infrastructure/vision"
)

const (
	testToken  = "123:test"
	testUserID = int64(42)
)

type stubDetector struct {
	ready      bool
	detections []entity.Detection
}

func (s stubDetector) Detect(ctx context.Context, imageData []byte) ([]entity.Detection, error) {
	return s.detections, nil
}

func (s stubDetector) Ready() bool  { return s.ready }
func (s stubDetector) Name() string { return "stub" }

type sent struct {
	method string
	chatID string
	text   string
}

// fakeTelegram отвечает на вызовы Bot API и отдаёт файл снимка.
type fakeTelegram struct {
	image []byte

	mu   sync.Mutex
	sent []sent
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/") {
		_, _ = w.Write(f.image)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch method := path.Base(r.URL.Path); method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Oral","username":"oral_scan_bot"}}`)
	case "getFile":
		fmt.Fprintf(w, `{"ok":true,"result":{"file_id":%q,"file_unique_id":"u1","file_path":"photos/file_1.jpg"}}`, r.FormValue("file_id"))
	case "sendMessage", "sendPhoto":
		text := r.FormValue("text")
		if method == "sendPhoto" {
			text = r.FormValue("caption")
		}
		f.mu.Lock()
		f.sent = append(f.sent, sent{method: method, chatID: r.FormValue("chat_id"), text: text})
		f.mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		http.Error(w, `{"ok":false,"error_code":404,"description":"Not Found"}`, http.StatusNotFound)
	}
}

func (f *fakeTelegram) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeTelegram) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.method)
	}
	return out
}

func (f *fakeTelegram) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(64, 48, color.NRGBA{R: 180, G: 90, B: 90, A: 255}), imaging.JPEG))
	return buf.Bytes()
}

func newTestBot(t *testing.T, det stubDetector) (*Bot, *fakeTelegram, *container.Container) {
	t.Helper()
	tg := &fakeTelegram{image: jpegBytes(t)}
	srv := httptest.NewServer(tg)
	t.Cleanup(srv.Close)

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(testToken, srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	history, err := storage.NewFileHistoryRepository(t.TempDir())
	require.NoError(t, err)
	c := container.New(container.Deps{
		Users:       storage.NewMemoryUserRepository(),
		History:     history,
		Detector:    det,
		Preparer:    vision.NewPreprocessor(1<<20, 256),
		Highlighter: vision.NewBoxPainter(),
		Recommender: recommend.NewStatic(),
	}, 0, app.DetectionConfig{MinConfidence: app.DefaultMinConfidence})

	return newBot(api, srv.URL+"/file/bot%s/%s", c), tg, c
}

func message(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUserID, FirstName: "Anna"},
		Chat:      &tgbotapi.Chat{ID: testUserID, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return msg
}

func photoMessage() *tgbotapi.Message {
	msg := message("")
	msg.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", FileUniqueID: "u0", Width: 32, Height: 24},
		{FileID: "large", FileUniqueID: "u1", Width: 64, Height: 48},
	}
	return msg
}

var aphthous = []entity.Detection{{Type: "Aphthous_Ulcers", Confidence: 80, BBox: entity.BoundingBox{X: 4, Y: 4, Width: 20, Height: 20}}}

func TestBot_PhotoFlow(t *testing.T) {
	bot, tg, c := newTestBot(t, stubDetector{ready: true, detections: aphthous})
	ctx := context.Background()

	bot.handleMessage(ctx, message("/check"))
	require.Equal(t, msgAwaitingPhoto, tg.last(t).text)
	user, err := c.UserService.Get(ctx, testUserID, testUserID)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	bot.handleMessage(ctx, message("hello"))
	require.Equal(t, msgStillAwaiting, tg.last(t).text)

	tg.reset()
	bot.handleMessage(ctx, photoMessage())
	require.Equal(t, []string{"sendMessage", "sendPhoto"}, tg.methods())
	reply := tg.last(t)
	require.Equal(t, "42", reply.chatID)
	require.Contains(t, reply.text, "• Aphthous Ulcer — 80.0%")
	require.Contains(t, reply.text, "Crohn's Disease — 33.33%")

	user, err = c.UserService.Get(ctx, testUserID, testUserID)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	page, err := c.HistoryService.List(ctx, "tg-42", 0)
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	require.Equal(t, entity.LesionAphthousUlcer, page.Detections[0].Disease)
	require.Equal(t, "u1.jpg", page.Detections[0].ImageFilename)

	bot.handleMessage(ctx, message("/history"))
	require.Contains(t, tg.last(t).text, "Проверок всего: 1")
	require.Contains(t, tg.last(t).text, entity.LesionAphthousUlcer)

	bot.handleMessage(ctx, message("hello"))
	require.Equal(t, msgSendPhoto, tg.last(t).text)
}

func TestBot_NoLesionsRepliesWithText(t *testing.T) {
	bot, tg, c := newTestBot(t, stubDetector{ready: true})
	ctx := context.Background()

	bot.handleMessage(ctx, photoMessage())
	require.Equal(t, []string{"sendMessage", "sendMessage"}, tg.methods())
	require.Equal(t, msgNoLesions, tg.last(t).text)

	page, err := c.HistoryService.List(ctx, "tg-42", 0)
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
}

func TestBot_CommandsAndRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("model not ready", func(t *testing.T) {
		bot, tg, c := newTestBot(t, stubDetector{ready: false})
		bot.handleMessage(ctx, photoMessage())
		require.Equal(t, msgModelNotReady, tg.last(t).text)

		page, err := c.HistoryService.List(ctx, "tg-42", 0)
		require.NoError(t, err)
		require.Zero(t, page.Count)
	})

	t.Run("busy", func(t *testing.T) {
		bot, tg, c := newTestBot(t, stubDetector{ready: true, detections: aphthous})
		_, err := c.UserService.SetState(ctx, testUserID, testUserID, entity.StateProcessing)
		require.NoError(t, err)

		bot.handleMessage(ctx, photoMessage())
		require.Equal(t, []string{"sendMessage"}, tg.methods())
		require.Equal(t, msgBusy, tg.last(t).text)
	})

	t.Run("cancel", func(t *testing.T) {
		bot, tg, c := newTestBot(t, stubDetector{ready: true})
		bot.handleMessage(ctx, message("/check"))
		bot.handleMessage(ctx, message("/cancel"))
		require.Equal(t, msgCancelled, tg.last(t).text)

		user, err := c.UserService.Get(ctx, testUserID, testUserID)
		require.NoError(t, err)
		require.Equal(t, entity.StateMainMenu, user.State)
	})

	t.Run("empty history and unknown command", func(t *testing.T) {
		bot, tg, _ := newTestBot(t, stubDetector{ready: true})
		bot.handleMessage(ctx, message("/history"))
		require.Equal(t, "📭 История пуста.", tg.last(t).text)

		bot.handleMessage(ctx, message("/start"))
		require.Equal(t, msgStart, tg.last(t).text)

		bot.handleMessage(ctx, message("/unknown"))
		require.Equal(t, msgUnknownCommand, tg.last(t).text)
	})
}
