package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gatehouse/internal/audit"
	"gatehouse/internal/auth"
	"gatehouse/internal/config"
	"gatehouse/internal/httpserver"
	"gatehouse/internal/logger"
	"gatehouse/internal/models"
	"gatehouse/internal/obs"
	"gatehouse/internal/rbac"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		lg.Fatalw("config load failed", "error", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RoleAssignment{},
		&models.RolePermission{},
		&models.TokenRecord{},
		&models.AuditLog{},
		&models.Employee{},
		&models.Visitor{},
		&models.Visit{},
		&models.Appointment{},
		&models.AccessLog{},
		&models.Document{},
		&models.Incident{},
		&models.WatchlistEntry{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedPermissions(db, lg)
	seedDefaultAdmin(db, cfg, lg)

	obs.Init()

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.SingleUseTTL, lg)
	rbacStore := rbac.NewGormStore(db)
	resolver := rbac.NewResolver(rbacStore)
	cache := rbac.NewCache(resolver, cfg.PermissionCacheTTL)
	recorder := audit.NewRecorder(db, lg)
	svc := auth.NewService(
		auth.NewGormAccountStore(db),
		auth.NewGormTokenRecordStore(db),
		tokens,
		rbacStore,
		resolver,
		cache,
		recorder,
		lg,
	)

	router := httpserver.NewRouter(httpserver.Deps{
		DB:     db,
		Logger: lg,
		Auth:   svc,
		Tokens: tokens,
		Cache:  cache,
		RBAC:   rbacStore,
		Audit:  recorder,
		Cfg:    cfg,
	})

	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

func seedPermissions(db *gorm.DB, lg *zap.SugaredLogger) {
	for _, bp := range rbac.BuiltinPermissions {
		perm := models.Permission{Slug: bp.Slug, Description: bp.Description, IsSystem: true}
		if err := db.Where("slug = ?", bp.Slug).FirstOrCreate(&perm).Error; err != nil {
			lg.Warnw("permission seed failed", "slug", bp.Slug, "error", err)
		}
	}
}

// seedDefaultAdmin makes a fresh deployment usable: one organization, an
// Administrator role holding every permission, and one admin account.
func seedDefaultAdmin(db *gorm.DB, cfg config.Config, lg *zap.SugaredLogger) {
	org := models.Organization{Name: "Default", Slug: "default", Timezone: "UTC", IsActive: true}
	if err := db.Where("slug = ?", org.Slug).FirstOrCreate(&org).Error; err != nil {
		lg.Fatalw("organization seed failed", "error", err)
	}

	role := models.Role{OrganizationID: org.ID, Name: "Administrator", Slug: "administrator", Priority: 100, IsActive: true}
	if err := db.Where("organization_id = ? AND slug = ?", org.ID, role.Slug).FirstOrCreate(&role).Error; err != nil {
		lg.Fatalw("role seed failed", "error", err)
	}

	var perms []models.Permission
	if err := db.Find(&perms).Error; err != nil {
		lg.Fatalw("permission read failed", "error", err)
	}
	for _, p := range perms {
		grant := models.RolePermission{RoleID: role.ID, PermissionID: p.ID, Granted: true}
		_ = db.Where("role_id = ? AND permission_id = ?", role.ID, p.ID).FirstOrCreate(&grant).Error
	}

	var count int64
	db.Model(&models.User{}).Where("LOWER(email) = LOWER(?)", cfg.AdminEmail).Count(&count)
	if count > 0 {
		return
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		lg.Fatalw("admin password hash failed", "error", err)
	}
	u := models.User{OrganizationID: org.ID, Email: cfg.AdminEmail, PasswordHash: hash, IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		lg.Fatalw("admin seed failed", "error", err)
	}
	assignment := models.RoleAssignment{UserID: u.ID, RoleID: role.ID, AssignedAt: time.Now(), IsActive: true}
	if err := db.Create(&assignment).Error; err != nil {
		lg.Fatalw("admin assignment failed", "error", err)
	}
	lg.Infow("seeded default admin", "email", cfg.AdminEmail)
}
