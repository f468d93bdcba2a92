package provider

import (
	"github.com/firesales-next/internal/cache"
	"github.com/firesales-next/internal/config"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/queue"
	"github.com/firesales-next/internal/repository"
	"github.com/firesales-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo      repository.AdminRepository
	UserRepo       repository.UserRepository
	ClientRepo     repository.ClientRepository
	GroupRepo      repository.CompensationGroupRepository
	ConversionRepo repository.ConversionRepository
	PayoutRepo     repository.PayoutRepository

	// Services
	AuthService      *service.AuthService
	AgentAuthService *service.AgentAuthService
	UserService      *service.UserService
	ClientService    *service.ClientService
	GroupService     *service.CompensationGroupService
	CapService       *service.CapEnforcementService
	ConversionService *service.ConversionService
	ImportService    *service.CsvImportService
	PayoutService    *service.PayoutService
	ReportService    *service.ReportService
	UploadService    *service.UploadService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ClientRepo = repository.NewClientRepository(db)
	c.GroupRepo = repository.NewCompensationGroupRepository(db)
	c.ConversionRepo = repository.NewConversionRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.AgentAuthService = service.NewAgentAuthService(c.Config, c.UserRepo)
	c.UserService = service.NewUserService(c.UserRepo, c.GroupRepo)
	c.ClientService = service.NewClientService(c.ClientRepo)
	c.GroupService = service.NewCompensationGroupService(c.GroupRepo)
	c.CapService = service.NewCapEnforcementService(c.GroupRepo, c.ConversionRepo)
	c.ConversionService = service.NewConversionService(c.ConversionRepo, c.GroupRepo, c.CapService)
	c.ImportService = service.NewCsvImportService(c.ClientRepo, c.ConversionRepo, c.Config.Import)
	c.PayoutService = service.NewPayoutService(c.PayoutRepo, c.ConversionRepo, c.UserRepo)
	c.ReportService = service.NewReportService(c.ConversionRepo)
	c.UploadService = service.NewUploadService(c.Config)
}
