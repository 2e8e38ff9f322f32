package cmd

import (
	"context"
	"fmt"
	"github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"io"
	"milk2meat/internal/auth"
	"milk2meat/internal/bible"
	"milk2meat/internal/config"
	"milk2meat/internal/constants"
	"milk2meat/internal/controllers"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"milk2meat/internal/markdown"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/notes"
	"milk2meat/internal/routes"
	"milk2meat/internal/search"
	"milk2meat/internal/session"
	"milk2meat/internal/storage"
	"milk2meat/internal/tags"
	"milk2meat/internal/turnstile"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	initFailed  = "failed"
	initRunning = "running"
)

var initializationState sync.Map

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	c, logger, env, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(c.ListeningAddress) == 0 && len(c.ListeningPort) == 0 {
		return fmt.Errorf("no listening address/port provided")
	}

	deps, err := injectDependencies(cmd.Context(), c, env)
	if err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "injecting dependencies failed: %s", err.Error())
		return err
	}

	ginLogger := logging.InitGinLogger(c)

	gin.DefaultWriter = io.MultiWriter(&zapio.Writer{Log: ginLogger, Level: c.Logging.Level})
	if c.Logging.Level == zap.DebugLevel {
		logger.LogDebug(logging.GetLogTypeInitialization(), "Enabling Gin debug (writes to access log)")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// multipart bodies above this are kept on disk by gin
	r.MaxMultipartMemory = c.Storage.MaxUploadSize

	r.Use(
		ginzap.GinzapWithConfig(ginLogger, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        false,
			SkipPaths:  []string{"/status", "/heartbeat"},
		}),
		ginzap.RecoveryWithZap(ginLogger, true),
	)

	// Routes
	routes.InitRouter(r, deps.controllerRegistry, c, deps.tokenStore)

	SetupCloseHandler(logger, deps.close)
	go func() {
		defer logger.RecoverPanic("orphaned tag clean up")
		ctx := context.Background()
		initializationState.Store("orphaned tag clean up", initRunning)
		if err := deps.housekeeper.DeleteOrphanedTags(ctx); err != nil {
			initializationState.Store("orphaned tag clean up", initFailed)
		} else {
			initializationState.Delete("orphaned tag clean up")
		}
	}()
	go checkAllInitializations(logger)

	logger.LogInfof(logging.GetLogTypeInitialization(), "API running. Listening on %s:%s", c.ListeningAddress, c.ListeningPort)

	err = r.Run(c.ListeningAddress + ":" + c.ListeningPort)
	if err != nil {
		logger.LogErrorf(logging.GetLogTypeInitialization(), "Listening on %s:%s failed: %s", c.ListeningAddress, c.ListeningPort, err.Error())
		return err
	}
	return nil
}

type dependencies struct {
	controllerRegistry map[int]any
	tokenStore         session.TokenStore
	housekeeper        notes.TagHousekeeper
	close              func()
}

func injectDependencies(ctx context.Context, c *config.Configuration, env *environment.Env) (*dependencies, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	closers := make([]func() error, 0)

	var fileStorage storage.FileStorage = &storage.NullStorage{}
	if c.Storage.Enabled {
		minioStorage, err := storage.NewMinioStorage(ctx, c)
		if err != nil {
			env.LogErrorf(logging.GetLogTypeStorage(), "error initializing object storage: %v", err)
			return nil, err
		}
		fileStorage = minioStorage
		env.LogInfof(logging.GetLogTypeStorage(), "object storage ready, bucket %s", c.Storage.Bucket)
	} else {
		env.LogWarn(logging.GetLogTypeStorage(), "object storage disabled; file uploads are rejected")
	}

	var tokenStore session.TokenStore = session.NullTokenStore{}
	if len(c.Redis.Addr) > 0 {
		redisStore := session.NewRedisTokenStore(c)
		if err := redisStore.Connect(ctx); err != nil {
			env.LogErrorf(logging.GetLogTypeAuth(), "error connecting to redis: %v", err)
			return nil, err
		}
		tokenStore = redisStore
		closers = append(closers, redisStore.Close)
	} else {
		env.LogWarn(logging.GetLogTypeAuth(), "no redis configured; logged out tokens stay valid until they expire")
	}

	var verifier turnstile.Verifier = turnstile.NewClient(c, env.Logger)
	if c.Turnstile.SkipValidation {
		env.LogWarn(logging.GetLogTypeAuth(), "turnstile validation is skipped")
		verifier = turnstile.SkipVerifier{}
	}

	renderer := markdown.NewRenderer()
	noteService := notes.NewNoteService(env, fileStorage)

	authController := &auth.Controller{
		Env: env,
		AuthService: &auth.AuthService{
			Env:      env,
			Verifier: verifier,
			Tokens:   middlewares.NewTokenIssuer(c),
			Store:    tokenStore,
		},
	}

	notesController := &notes.Controller{
		Env:         env,
		NoteService: noteService,
		Renderer:    renderer,
		Uploads:     &notes.MimeUploadValidator{MaxSize: c.Storage.MaxUploadSize},
	}

	bibleController := &bible.Controller{
		Env:      env,
		Renderer: renderer,
	}

	// the Collator is used for lexicographic order with locale-aware sorting,
	// instead of Go's default pure Unicode code point ordering
	tagsController := &tags.Controller{
		Env:        env,
		TagService: tags.NewTagService(language.English, collate.IgnoreCase),
	}

	searchController := &search.Controller{
		Env:      env,
		Index:    search.NewIndex(env, search.DefaultRegistrations()),
		PageSize: c.Search.PageSize,
	}

	markdownController := &controllers.MarkdownController{
		Env:      env,
		Renderer: renderer,
		Style:    markdown.DefaultHighlightStyle,
	}

	statusController := &controllers.StatusController{
		Env:            env,
		StartedAt:      time.Now(),
		StorageEnabled: c.Storage.Enabled,
	}

	controllerRegistry := make(map[int]any)
	controllerRegistry[constants.Auth] = authController
	controllerRegistry[constants.Notes] = notesController
	controllerRegistry[constants.Bible] = bibleController
	controllerRegistry[constants.Tags] = tagsController
	controllerRegistry[constants.Search] = searchController
	controllerRegistry[constants.Markdown] = markdownController
	controllerRegistry[constants.Status] = statusController

	return &dependencies{
		controllerRegistry: controllerRegistry,
		tokenStore:         tokenStore,
		housekeeper:        noteService.Housekeeper,
		close: func() {
			for _, closer := range closers {
				if err := closer(); err != nil {
					env.LogWarnf(logging.GetLogTypeInitialization(), "error while closing: %v", err)
				}
			}
		},
	}, nil
}

func checkAllInitializations(logger logging.Logger) {
	internalCounter := 15
	failedInits, unfinishedInits := make([]string, 0), make([]string, 0)
	time.Sleep(time.Second * 2)
	for internalCounter != 0 {
		allWorkedOn := true
		failedInits = []string{}
		unfinishedInits = []string{}
		initializationState.Range(func(key, value interface{}) bool {
			if value == initFailed {
				failedInits = append(failedInits, key.(string))
			} else {
				unfinishedInits = append(unfinishedInits, key.(string))
				logger.LogWarnf(logging.GetLogTypeInitialization(), "Initialization: waiting for %v", key)
				allWorkedOn = false
			}
			return true
		})
		if allWorkedOn {
			break
		}
		time.Sleep(time.Second * 2)
		if internalCounter%5 == 0 {
			logger.LogDebug(logging.GetLogTypeInitialization(), "Waiting for all initialization(s) to complete...")
		}
		internalCounter--
	}
	if len(failedInits) > 0 || len(unfinishedInits) > 0 || internalCounter == 0 {
		if len(unfinishedInits) > 0 {
			logger.LogErrorf(logging.GetLogTypeInitialization(), "%v Initialization function(s) did not complete in time: %v",
				len(unfinishedInits), strings.Join(unfinishedInits, ", "))
		}
		if len(failedInits) > 0 {
			logger.LogErrorf(logging.GetLogTypeInitialization(), "%v Initialization function(s) failed: %v",
				len(failedInits), strings.Join(failedInits, ", "))
		}
	} else {
		logger.LogInfo(logging.GetLogTypeInitialization(), "Initialization completed successfully")
	}
}

// SetupCloseHandler runs cleanup and exits on SIGHUP, SIGINT, SIGTERM or SIGQUIT.
func SetupCloseHandler(logger logging.Logger, cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		fmt.Println()
		logger.LogWarnf(logging.GetLogTypeInitialization(), "Cleaning up...")
		if cleanup != nil {
			cleanup()
		}
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}()
}
