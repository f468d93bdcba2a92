package main

import (
	"time"

	"github.com/firesales-next/internal/config"
	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/logger"
	"github.com/firesales-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()

	// 添加客户与合作条款
	type seedClient struct {
		Name  string
		Deals []models.AffiliateDeal
	}
	seedClients := []seedClient{
		{
			Name: "Bet99",
			Deals: []models.AffiliateDeal{
				{
					LinkType: constants.LinkTypeSports,
					CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
					Currency: constants.DefaultCurrency,
					Enabled:  true,
				},
				{
					LinkType: constants.LinkTypeCasino,
					CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(120)),
					Currency: constants.DefaultCurrency,
					Enabled:  true,
				},
			},
		},
		{
			Name: "Sports Interaction",
			Deals: []models.AffiliateDeal{
				{
					LinkType: constants.LinkTypeBoth,
					CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
					Currency: constants.DefaultCurrency,
					Enabled:  true,
				},
			},
		},
		{
			Name: "Betano",
			Deals: []models.AffiliateDeal{
				{
					LinkType: constants.LinkTypeSports,
					CPA:      models.NewMoneyFromDecimal(decimal.NewFromInt(130)),
					Currency: constants.DefaultCurrency,
					Enabled:  true,
				},
			},
		},
	}

	clientIDs := map[string]uint{}
	for _, sc := range seedClients {
		var existing models.Client
		if err := models.DB.Where("name = ?", sc.Name).First(&existing).Error; err == nil {
			stdLog.Printf("Client already exists: %s", sc.Name)
			clientIDs[sc.Name] = existing.ID
			continue
		}
		client := models.Client{Name: sc.Name, Status: constants.ClientStatusEnabled}
		if err := models.DB.Create(&client).Error; err != nil {
			stdLog.Printf("Failed to create client %s: %v", sc.Name, err)
			continue
		}
		version := models.ClientVersion{ClientID: client.ID, EffectiveAt: now}
		for i := range sc.Deals {
			sc.Deals[i].SortOrder = i
		}
		version.Deals = sc.Deals
		if err := models.DB.Create(&version).Error; err != nil {
			stdLog.Printf("Failed to create client version for %s: %v", sc.Name, err)
			continue
		}
		clientIDs[sc.Name] = client.ID
		stdLog.Printf("Created client: %s", sc.Name)
	}

	// 添加分成组与推广链接
	var group models.CompensationGroup
	if err := models.DB.Where("name = ?", "Canada Starter").First(&group).Error; err != nil {
		group = models.CompensationGroup{Name: "Canada Starter", Enabled: true}
		if err := models.DB.Create(&group).Error; err != nil {
			stdLog.Fatalf("Failed to create compensation group: %v", err)
		}
		monthlyLimit := 50
		version := models.CompensationGroupVersion{
			GroupID:     group.ID,
			EffectiveAt: now,
			Links: []models.AffiliateLink{
				{
					ClientID:     clientIDs["Bet99"],
					LinkType:     constants.LinkTypeSports,
					Commission:   models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
					MinBetSize:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
					CPA:          models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
					MonthlyLimit: &monthlyLimit,
					Enabled:      true,
				},
				{
					ClientID:   clientIDs["Sports Interaction"],
					LinkType:   constants.LinkTypeBoth,
					Commission: models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
					MinBetSize: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
					CPA:        models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
					Enabled:    true,
				},
			},
			Incentives: []models.RetentionIncentive{
				{
					ClientID:     clientIDs["Bet99"],
					Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(25)),
					MonthlyLimit: 10,
				},
			},
		}
		if err := models.DB.Create(&version).Error; err != nil {
			stdLog.Fatalf("Failed to create compensation group version: %v", err)
		}
		stdLog.Printf("Created compensation group: %s", group.Name)
	} else {
		stdLog.Printf("Compensation group already exists: %s", group.Name)
	}

	// 添加示例代理账号
	var agent models.User
	if err := models.DB.Where("email = ?", "agent@example.com").First(&agent).Error; err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte("agent12345"), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Fatalf("Failed to hash agent password: %v", err)
		}
		agent = models.User{
			Email:               "agent@example.com",
			PasswordHash:        string(hash),
			DisplayName:         "Demo Agent",
			Status:              constants.UserStatusActive,
			CompensationGroupID: &group.ID,
		}
		if err := models.DB.Create(&agent).Error; err != nil {
			stdLog.Fatalf("Failed to create agent: %v", err)
		}
		stdLog.Printf("Created agent: %s (password: agent12345)", agent.Email)
	} else {
		stdLog.Printf("Agent already exists: %s", agent.Email)
	}

	stdLog.Printf("Seed completed")
}
