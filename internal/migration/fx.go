package migration

import (
	"github.com/smallbiznis/booklib/internal/config"
	"github.com/smallbiznis/booklib/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		dbType := db.ConfigFrom(cfg).Type
		if err := Run(conn, dbType); err != nil {
			return err
		}
		log.Info("migrations applied", zap.String("type", dbType))
		return nil
	}),
)
