package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"sysbar/internal/handlers"
	"sysbar/internal/middleware"
	"sysbar/internal/models"
	"sysbar/internal/monitor"
	"sysbar/internal/utils"
	"sysbar/ui"
)

type App struct {
	monitor     *monitor.Monitor
	authService *middleware.AuthService
	wsHub       *middleware.Hub
	rateLimiter *middleware.RateLimiter
}

var app *App

func main() {
	configPath := flag.String("config", "", "path to sysbar.config")
	flag.Parse()

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	mon := monitor.NewMonitorWithConfig(*configPath)
	if !mon.IsActive() {
		log.Fatal("Monitor failed to initialize")
	}

	app = &App{
		monitor:     mon,
		authService: middleware.NewAuthService(mon.JWTSecret, mon.AuthEnabled()),
		wsHub:       middleware.NewHub(mon.Log),
		rateLimiter: middleware.NewRateLimiter(rate.Every(time.Minute/300), 30),
	}

	go app.wsHub.Run()

	// Push each published snapshot to connected panel clients.
	mon.OnSample = func(s models.Snapshot) {
		if app.wsHub.GetClientCount() == 0 {
			return
		}
		data, err := json.Marshal(s)
		if err != nil {
			return
		}
		app.wsHub.Broadcast(data)
	}
	mon.StartSampling()

	r := setupRouter()

	srv := &http.Server{
		Addr:           ":" + strconv.Itoa(mon.Port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	startServer := func() {
		if mon.TLSEnabled {
			if mon.TLSCertPath == "" || mon.TLSKeyPath == "" {
				log.Fatal("TLS is enabled but tls_cert or tls_key is not set")
			}
			mon.Log.Write(fmt.Sprintf("Starting HTTPS panel on port %d", mon.Port))
			if err := srv.ListenAndServeTLS(mon.TLSCertPath, mon.TLSKeyPath); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTPS server failed to start: %v", err)
			}
		} else {
			mon.Log.Write(fmt.Sprintf("Starting panel on port %d", mon.Port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server failed to start: %v", err)
			}
		}
	}

	natStop := make(chan struct{})
	if mon.AutoPortForward {
		go utils.StartPanelMapping(mon.Port, mon.Log, natStop)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if mon.TrayEnabled && runtime.GOOS == "windows" {
		go startServer()
		go func() {
			<-quit
			trayQuit()
		}()
		// Tray runs on the main thread and blocks until exit.
		startTray(app)
		mon.Log.Write("Tray exit requested")
	} else {
		go startServer()
		<-quit
	}
	mon.Log.Write("Shutdown signal received")

	close(natStop)

	// Give the server 5 seconds to finish in-flight requests.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		mon.Log.Write(fmt.Sprintf("HTTP server shutdown error: %v", err))
	}

	app.rateLimiter.Stop()
	mon.Shutdown()
	app.wsHub.Stop()
	log.Println("sysbar exited")
}

func setupRouter() *gin.Engine {
	r := gin.New()

	// Add recovery middleware
	r.Use(gin.Recovery())

	if app.monitor.VerboseHTTP {
		r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC1123),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		}))
	}

	// Security middleware
	r.Use(middleware.SecurityHeaders(app.monitor.AllowIFrame))
	r.Use(middleware.CORS())
	r.Use(app.rateLimiter.Middleware())

	// Embedded panel assets
	r.SetHTMLTemplate(template.Must(template.ParseFS(ui.Assets, "templates/*.html")))
	staticFS, err := fs.Sub(ui.Assets, "static")
	if err == nil {
		r.StaticFS("/static", http.FS(staticFS))
	}

	metricsHandlers := handlers.NewMetricsHandlers(app.monitor, app.wsHub)
	authHandlers := handlers.NewAuthHandlers(app.authService, app.monitor)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/", metricsHandlers.Panel)

	// Authentication routes
	r.POST("/api/login", authHandlers.APILogin)
	r.GET("/logout", authHandlers.Logout)

	// API routes (require token authentication when configured)
	api := r.Group("/api")
	api.Use(app.authService.RequireAPIAuth())
	{
		api.GET("/stats", metricsHandlers.APIStats)
		api.GET("/history", metricsHandlers.APIHistory)
		api.GET("/config", metricsHandlers.APIConfig)
		api.POST("/config", metricsHandlers.APIConfigUpdate)
	}

	// WebSocket endpoint
	r.GET("/ws", app.wsHub.HandleWebSocket())

	return r
}
