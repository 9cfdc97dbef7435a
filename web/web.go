// Package web provides the cinelog web server: routing, embedded HTML
// templates, session handling and the scheduled maintenance job.
package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cinelog/cinelog/config"
	"github.com/cinelog/cinelog/logger"
	"github.com/cinelog/cinelog/util/common"
	"github.com/cinelog/cinelog/util/random"
	"github.com/cinelog/cinelog/web/controller"
	"github.com/cinelog/cinelog/web/job"
	"github.com/cinelog/cinelog/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed html/*
var htmlFS embed.FS

// Server is the cinelog web server with its controllers and the cron
// scheduler.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index      *controller.IndexController
	profile    *controller.ProfileController
	item       *controller.ItemController
	reviewHist *controller.ReviewHistController
	account    *controller.AccountController
	admin      *controller.AdminController

	store *session.GormStore
	cron  *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// getHtmlTemplate parses the embedded HTML templates.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// folders without templates are fine
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()
	engine.MaxMultipartMemory = config.GetMaxUploadSize()

	basePath := config.GetBasePath()
	engine.Use(func(c *gin.Context) {
		c.Set("base_path", basePath)
	})

	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	// Session cookie: HttpOnly, SameSite=Lax, Secure in production, session
	// lifetime (non-persistent).
	secret := []byte(config.GetSessionSecret())
	if len(secret) == 0 {
		logger.Warning("no session secret configured, sessions will not survive a restart")
		secret = []byte(random.Seq(32))
	}
	s.store = session.NewGormStore(secret)
	s.store.Options(sessions.Options{
		Path:     basePath,
		MaxAge:   0,
		Secure:   config.IsProduction(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	session.RegisterStore(s.store)
	engine.Use(sessions.Sessions(session.Name, s.store))

	funcMap := template.FuncMap{
		"basename": filepath.Base,
		// percent maps a 0..5 rating onto a 0..100 width for the star bar.
		"percent": func(rating any) float64 {
			switch v := rating.(type) {
			case int:
				return float64(v) / 5 * 100
			case float64:
				return v / 5 * 100
			default:
				return 0
			}
		},
		"mkrange": func(from, to int) []int {
			seq := make([]int, 0, to-from+1)
			for i := from; i <= to; i++ {
				seq = append(seq, i)
			}
			return seq
		},
	}
	engine.SetFuncMap(funcMap)
	tpl, err := s.getHtmlTemplate(funcMap)
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tpl)

	// Uploaded images are served from disk under their server-generated
	// names.
	engine.Static(basePath+"uploads", config.GetUploadFolder())

	g := engine.Group(basePath)
	s.index = controller.NewIndexController(g)
	s.profile = controller.NewProfileController(g)
	s.item = controller.NewItemController(g)
	s.reviewHist = controller.NewReviewHistController(g)
	s.account = controller.NewAccountController(g)
	s.admin = controller.NewAdminController(g)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

func (s *Server) startTask() {
	s.cron.AddJob("@daily", job.NewCleanupJob(s.store))
}

// Start initializes the router and begins serving.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New()
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("web server running on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	s.startTask()

	return nil
}

// Stop gracefully shuts down the web server and the scheduler.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }
