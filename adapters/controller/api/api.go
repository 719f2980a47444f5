package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Camilejo/TallerBDRedis/adapters/controller"
	"github.com/Camilejo/TallerBDRedis/model"
	"github.com/Camilejo/TallerBDRedis/service"
)

type Api struct {
	Port         int
	TickInterval int
	logger       zerolog.Logger
	sim          model.ISimulator
	ingest       model.IIngest
	publisher    model.IPublisher
	wsHandler    gin.HandlerFunc
}

type Info struct {
	CompileDate    string `json:"compile_date"`
	Version        string `json:"version"`
	LogLevel       string `json:"log_level"`
	LogLevelString string `json:"log_level_string"`
	Date           string `json:"date"`
	EncryptionFlag int    `json:"encryption_flag"`
	MqttConnection string `json:"mqtt_connection"`
	MqttTopic      string `json:"mqtt_topic"`
	TickInterval   int    `json:"tick_interval"`
}

var info Info

func NewApi(conf controller.ControllerConfig, sim model.ISimulator, ingest model.IIngest, publisher model.IPublisher) *Api {
	info.CompileDate = conf.CompileDate
	info.Version = conf.Version
	info.LogLevel = fmt.Sprintf("%d", conf.LogLevel)
	info.LogLevelString = conf.LogLevelString
	info.EncryptionFlag = conf.EncryptionFlag
	info.MqttConnection = conf.MqttConnection
	info.MqttTopic = conf.MqttTopic
	info.TickInterval = conf.TickInterval

	return &Api{
		Port:         conf.Port,
		TickInterval: conf.TickInterval,
		sim:          sim,
		ingest:       ingest,
		publisher:    publisher,
		logger: zerolog.New(
			zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: time.RFC3339}).
			Level(zerolog.Level(conf.LogLevel + 1)).
			With().
			Timestamp().
			Int("pid", os.Getpid()).
			Logger(),
	}
}

// AttachWs mounts a WebSocket upgrade handler on /ws. Must be called before
// Start.
func (a *Api) AttachWs(handler gin.HandlerFunc) {
	a.wsHandler = handler
}

func (a *Api) Start(ctx context.Context, wg *sync.WaitGroup) {
	go a.start(ctx, wg)
}

func (a *Api) start(ctx context.Context, wg *sync.WaitGroup) {
	var (
		router *gin.Engine
		server *http.Server
		err    error
	)

	wg.Add(1)

	router = gin.Default()
	a.routes(router)

	server = &http.Server{
		Addr:    ":" + fmt.Sprint(a.Port),
		Handler: router,
	}

	go func() {
		if err = server.ListenAndServe(); err != nil {
			if errors.Is(http.ErrServerClosed, err) {
				a.logger.Warn().Err(err).Msg("Server closed under request")
			} else {
				a.logger.Err(err).Msg("Server closed unexpect")
			}
		}
	}()

	a.logger.Info().Msg("Waiting API server ready")
	<-ctx.Done()
	switch ctx.Err() {
	case context.Canceled:
		a.logger.Warn().Msg("API server shutting down")
	case context.DeadlineExceeded:
		a.logger.Warn().Msg("API server shutting down on Context deadline exceeded")
	default:
		a.logger.Warn().Msg("API server shutting down unknown reason")
	}
	if err = server.Shutdown(context.Background()); err != nil {
		a.logger.Err(err).Msg("Server close")
	}
	wg.Done()
}

func (a *Api) routes(router *gin.Engine) {
	// wire contract with the publishing side of the bridge
	router.POST("/api/sensors", a.Ingest)
	router.GET("/api/sensors/:city", a.LatestByCity)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/sensors", a.Sensors)
		v1.GET("/sensors/:id", a.SensorByID)
		v1.GET("/sensors/:id/history", a.SensorHistory)
		v1.GET("/alerts", a.Alerts)
		v1.POST("/alerts/:id/resolve", a.ResolveAlert)
		v1.GET("/stats", a.Stats)
		v1.GET("/info", a.Info)
		v1.POST("/simulation/start", a.StartSimulation)
		v1.POST("/simulation/stop", a.StopSimulation)
	}

	if a.wsHandler != nil {
		router.GET("/ws", a.wsHandler)
	}

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })
}

// Ingest accepts a JSON payload from an external publisher and relays it
// through the bridge. The body must carry a city field.
func (a *Api) Ingest(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}

	if err = a.ingest.Ingest(body); err != nil {
		if errors.Is(err, service.ErrMissingCity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.logger.Error().Err(err).Msg("ingest failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot parse JSON body"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LatestByCity returns the last payload stored for a city key.
func (a *Api) LatestByCity(c *gin.Context) {
	city := c.Param("city")

	msg, ok := a.publisher.Latest("sensor:" + city)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for " + city})
		return
	}
	c.Data(http.StatusOK, "application/json", msg.Payload)
}

func (a *Api) Sensors(c *gin.Context) {
	c.JSON(http.StatusOK, a.sim.Sensors())
}

func (a *Api) SensorByID(c *gin.Context) {
	sensor, ok := a.sim.Sensor(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown sensor"})
		return
	}
	c.JSON(http.StatusOK, sensor)
}

func (a *Api) SensorHistory(c *gin.Context) {
	limit := intQuery(c, "limit", 0)

	view, ok := a.sim.SensorHistory(c.Param("id"), limit)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no history for sensor"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *Api) Alerts(c *gin.Context) {
	limit := intQuery(c, "limit", 0)
	alerts := a.sim.ActiveAlerts(limit)
	if alerts == nil {
		alerts = []model.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}

func (a *Api) ResolveAlert(c *gin.Context) {
	if !a.sim.ResolveAlert(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *Api) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, a.sim.SystemStats())
}

func (a *Api) Info(c *gin.Context) {
	info.Date = time.Now().UTC().Format(time.RFC3339)
	c.JSON(http.StatusOK, info)
}

// StartSimulation starts the scheduler. An optional body field interval
// overrides the configured tick interval in seconds.
func (a *Api) StartSimulation(c *gin.Context) {
	var body struct {
		Interval int `json:"interval"`
	}

	// missing or empty body just means "use the configured interval"
	_ = c.ShouldBindJSON(&body)
	interval := body.Interval
	if interval <= 0 {
		interval = a.TickInterval
	}

	a.sim.Start(time.Duration(interval) * time.Second)
	c.JSON(http.StatusOK, gin.H{"success": true, "interval": interval})
}

func (a *Api) StopSimulation(c *gin.Context) {
	a.sim.Stop()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
