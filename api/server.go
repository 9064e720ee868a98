// Package api is the carousel control web server
package api

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"lobbysign/api/models"
	"lobbysign/carousel"
	"lobbysign/display"
	"lobbysign/player"
	"lobbysign/store"
)

type WebServer struct {
	router   *gin.Engine
	db       *store.Database
	orch     *carousel.Orchestrator
	rootPath string

	localManager    *LocalManager
	remoteManager   *RemoteManager
	scheduleManager *ScheduleManager

	// this ensures only one goroutine can restart the kiosk player at a time
	playerMutex   sync.Mutex
	playerStarted bool
}

func NewWebServer(db *store.Database, orch *carousel.Orchestrator, rootPath string) *WebServer {
	router := gin.Default()

	ws := &WebServer{
		router:   router,
		db:       db,
		orch:     orch,
		rootPath: rootPath,
	}

	localManager, err := NewLocalManager()
	if err != nil {
		log.Fatalf("Failed to initialize local manager: %v", err)
	}
	remoteManager, err := NewRemoteManager()
	if err != nil {
		log.Fatalf("Failed to initialize remote manager: %v", err)
	}
	scheduleManager, err := NewScheduleManager(db)
	if err != nil {
		log.Fatalf("Failed to initialize schedule manager: %v", err)
	}
	ws.localManager = localManager
	ws.remoteManager = remoteManager
	ws.scheduleManager = scheduleManager

	// Setup routes
	ws.setupRoutes()

	return ws
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Rotation
	ws.router.GET("/items", ws.handleListItems)
	ws.router.PUT("/items", ws.handlePublishItems)

	// Playback
	ws.router.GET("/playback", ws.handleGetPlayback)
	ws.router.POST("/playback/next", ws.handleNext)
	ws.router.POST("/playback/previous", ws.handlePrevious)
	ws.router.POST("/playback/pause", ws.handleTogglePause)

	// Per-item preferences
	ws.router.GET("/items/:id/preferences", ws.handleGetPreferences)
	ws.router.PUT("/items/:id/dwell", ws.handleUpdateDwell)
	ws.router.PUT("/items/:id/image", ws.handleUpdateImagePrefs)

	// Layout
	ws.router.GET("/layout", ws.handleGetLayout)
	ws.router.POST("/layout/resize", ws.handleResize)
	ws.router.PUT("/layout/overrides", ws.handleLayoutOverrides)

	// Physical display + schedule
	ws.router.GET("/display", ws.handleGetDisplay)
	ws.router.PUT("/display/:state", ws.handleUpdateDisplay)
	ws.router.GET("/schedule", ws.handleGetSchedule)
	ws.router.PUT("/schedule", ws.handleUpdateSchedule)
}

func (ws *WebServer) Start(port string) {
	// listen for feed updates and make sure the kiosk player is up
	go func() {
		for {
			select {
			case <-ws.remoteManager.Updated:
				slog.Info("rotation updated from remote feed")
			case <-ws.localManager.Updated:
				slog.Info("rotation updated from local feed")
			}
			ws.ensurePlayer()
		}
	}()

	go ws.localManager.Run()
	go ws.remoteManager.Run()
	go ws.scheduleManager.Run()

	log.Printf("Starting carousel server on %s", port)
	if err := ws.router.Run(port); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

// ensurePlayer launches the kiosk player once content is available.
func (ws *WebServer) ensurePlayer() {
	ws.playerMutex.Lock()
	defer ws.playerMutex.Unlock()

	if ws.playerStarted {
		return
	}

	settings, err := ws.db.GetAppSettings()
	if err != nil {
		slog.Error("unable to get app settings for player start", "error", err)
		return
	}

	if err := player.Restart(settings.PlayerURL); err != nil {
		slog.Warn("unable to start kiosk player", "error", err)
		return
	}
	ws.playerStarted = true
}

func (ws *WebServer) handleListItems(c *gin.Context) {
	items := ws.orch.Items()
	c.JSON(http.StatusOK, models.ItemListResponse{
		Items: items,
		Total: len(items),
	})
}

func (ws *WebServer) handlePublishItems(c *gin.Context) {
	var req models.PublishItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	rotation := ws.orch.SetItems(req.Items)
	slog.Info("rotation replaced",
		"batch_id", req.BatchID,
		"received", len(req.Items),
		"rotation", rotation)

	c.JSON(http.StatusOK, models.PublishItemsResponse{
		BatchID:  req.BatchID,
		Received: len(req.Items),
		Rotation: rotation,
		Message:  "Rotation updated",
	})
}

func (ws *WebServer) handleGetPlayback(c *gin.Context) {
	c.JSON(http.StatusOK, ws.orch.View())
}

func (ws *WebServer) handleNext(c *gin.Context) {
	ws.orch.Next()
	c.JSON(http.StatusOK, ws.orch.View())
}

func (ws *WebServer) handlePrevious(c *gin.Context) {
	ws.orch.Previous()
	c.JSON(http.StatusOK, ws.orch.View())
}

func (ws *WebServer) handleTogglePause(c *gin.Context) {
	paused := ws.orch.TogglePause()
	c.JSON(http.StatusOK, models.PauseResponse{Paused: paused})
}

func (ws *WebServer) handleGetPreferences(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Item id is required"})
		return
	}
	c.JSON(http.StatusOK, ws.orch.PreferencesFor(id))
}

func (ws *WebServer) handleUpdateDwell(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Item id is required"})
		return
	}

	var req models.DwellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if req.DwellDurationMs <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "dwell_duration_ms must be positive"})
		return
	}

	// Out-of-range input is clamped before the scheduler ever sees it.
	clamped := ws.orch.SetDwell(id, req.DwellDurationMs)

	c.JSON(http.StatusOK, models.DwellResponse{
		ItemID:          id,
		DwellDurationMs: clamped,
	})
}

func (ws *WebServer) handleUpdateImagePrefs(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Item id is required"})
		return
	}

	var req models.ImagePrefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	prefs := ws.orch.UpdateImagePrefs(id, req.ImageLayout, req.ImageScale, req.ImageSplitPercent, req.ImageOpacity)
	c.JSON(http.StatusOK, prefs)
}

func (ws *WebServer) handleGetLayout(c *gin.Context) {
	widthStr := c.Query("width")
	heightStr := c.Query("height")

	// Without query overrides report the tokens for the live display.
	if widthStr == "" && heightStr == "" {
		view := ws.orch.View()
		c.JSON(http.StatusOK, gin.H{"metrics": view.Metrics, "sizes": view.Sizes})
		return
	}

	width, err := strconv.Atoi(widthStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid width parameter"})
		return
	}
	height, err := strconv.Atoi(heightStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid height parameter"})
		return
	}
	pixelRatio := 1.0
	if ratioStr := c.Query("pixel_ratio"); ratioStr != "" {
		pixelRatio, err = strconv.ParseFloat(ratioStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid pixel_ratio parameter"})
			return
		}
	}

	metrics, sizes := ws.orch.SizesForSample(width, height, pixelRatio)
	c.JSON(http.StatusOK, gin.H{"metrics": metrics, "sizes": sizes})
}

func (ws *WebServer) handleResize(c *gin.Context) {
	var req models.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	sizes := ws.orch.HandleResize(req.Width, req.Height, req.PixelRatio)
	c.JSON(http.StatusOK, sizes)
}

func (ws *WebServer) handleLayoutOverrides(c *gin.Context) {
	var req models.LayoutOverridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	sizes := ws.orch.SetLayoutOverrides(req.IconMultiplier, req.AvatarMultiplier, req.Clear)
	c.JSON(http.StatusOK, sizes)
}

func (ws *WebServer) handleGetDisplay(c *gin.Context) {
	enabled, err := display.GetEnabled()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get display state: %v", err)})
		return
	}

	c.JSON(http.StatusOK, models.DisplayStateResponse{Enabled: enabled})
}

func (ws *WebServer) handleUpdateDisplay(c *gin.Context) {
	state := c.Param("state")
	if state != "0" && state != "1" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "state must be 0 (off) or 1 (on)"})
		return
	}

	desiredEnabled := state == "1"
	if err := display.UpdateEnabled(desiredEnabled); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update display state: %v", err)})
		return
	}

	// Re-read state to reflect actual output if possible.
	enabled, err := display.GetEnabled()
	if err != nil {
		slog.Warn("failed to re-read display state after update", "error", err)
		enabled = desiredEnabled
	}

	c.JSON(http.StatusOK, models.DisplayStateResponse{Enabled: enabled})
}

func (ws *WebServer) handleGetSchedule(c *gin.Context) {
	schedule, err := ws.db.GetSchedule()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to get schedule: %v", err)})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

var validScheduleTime = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

func (ws *WebServer) handleUpdateSchedule(c *gin.Context) {
	var req store.Schedule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if !validScheduleTime.MatchString(req.Start) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid start time format: need 23:15, got %s", req.Start)})
		return
	}

	if !validScheduleTime.MatchString(req.End) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid end time format: need 23:15, got %s", req.End)})
		return
	}

	newSchedule := &store.Schedule{
		Enabled: req.Enabled,
		Start:   req.Start,
		End:     req.End,
	}

	if err := ws.db.UpsertSchedule(newSchedule); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Failed to update schedule: %v", err)})
		return
	}

	c.JSON(http.StatusOK, newSchedule)
}
