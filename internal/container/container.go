package container

import (
	app "oral-scan/internal/application"
	"oral-scan/internal/domain/port"
)

// Deps порты, из которых собираются сервисы приложения.
type Deps struct {
	Users       port.UserRepository
	History     port.HistoryRepository
	Detector    port.LesionDetector
	Preparer    port.ImagePreparer
	Highlighter port.Highlighter
	Recommender port.Recommender
}

type Container struct {
	UserService      *app.UserService
	HistoryService   *app.HistoryService
	DetectionService *app.DetectionService
}

func New(deps Deps, historyLimit int, detection app.DetectionConfig) *Container {
	userService := app.NewUserService(deps.Users)
	historyService := app.NewHistoryService(deps.History, historyLimit)
	detectionService := app.NewDetectionService(
		deps.Detector,
		deps.Preparer,
		deps.Highlighter,
		deps.Recommender,
		historyService,
		detection,
	)

	return &Container{
		UserService:      userService,
		HistoryService:   historyService,
		DetectionService: detectionService,
	}
}
