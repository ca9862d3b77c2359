package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gametrack_v1_202601/internal/controller"
	"gametrack_v1_202601/internal/middleware"
	"gametrack_v1_202601/internal/model"
	"gametrack_v1_202601/internal/repository"
	"gametrack_v1_202601/internal/router"
	"gametrack_v1_202601/internal/service"
	"gametrack_v1_202601/internal/task"
	"gametrack_v1_202601/pkg/config"
	"gametrack_v1_202601/pkg/database"
	"gametrack_v1_202601/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	// 2. 初始化日志
	appLogger, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer appLogger.Sync()

	// 3. JWT 配置
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		Issuer:          cfg.JWT.Issuer,
	})

	// 4. 初始化数据库
	db := initDatabase(cfg)

	// 5. 初始化依赖
	deps := initDependencies(db)

	// 6. 启动定时任务
	resetTask := task.NewWeeklyResetTask(deps.Services.Progress, cfg.Task.ResetSpec, appLogger)
	if err := resetTask.Start(); err != nil {
		log.Fatalf("定时任务启动失败: %v", err)
	}
	defer resetTask.Stop()

	// 7. 初始化路由并启动服务
	r := router.SetupRouter(deps.Controllers, appLogger)
	startServer(r, cfg, appLogger)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	User     repository.UserRepository
	Account  repository.SharedAccountRepository
	Relation repository.RelationRepository
	Template repository.TemplateRepository
	Progress repository.ProgressRepository
}

// Services 服务集合
type Services struct {
	User       *service.UserService
	Permission *service.PermissionService
	Account    *service.SharedAccountService
	Template   *service.TemplateService
	Progress   *service.ProgressService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(
		cfg.Database.DSN,
		// 用户与共享账号
		&model.SysUser{}, &model.SharedAccount{}, &model.UserAccountRelation{},
		// 周常进度
		&model.ProgressTemplate{}, &model.ProgressRecord{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		User:     repository.NewUserRepository(db),
		Account:  repository.NewSharedAccountRepository(db),
		Relation: repository.NewRelationRepository(db),
		Template: repository.NewTemplateRepository(db),
		Progress: repository.NewProgressRepository(db),
	}

	// -------- 业务服务 --------
	permissionSvc := service.NewPermissionService(repos.Relation)
	services := &Services{
		User:       service.NewUserService(repos.User),
		Permission: permissionSvc,
		Account:    service.NewSharedAccountService(repos.Account, repos.Relation, repos.User, permissionSvc),
		Template:   service.NewTemplateService(repos.Template),
		Progress:   service.NewProgressService(repos.Progress, repos.Template, permissionSvc),
	}

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:     controller.NewAuthController(services.User),
		Account:  controller.NewAccountController(services.Account, services.Permission),
		Template: controller.NewTemplateController(services.Template),
		Progress: controller.NewProgressController(services.Progress),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, cfg *config.Config, appLogger *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		appLogger.Info("服务启动", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	appLogger.Info("服务已退出")
}
