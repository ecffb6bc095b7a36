package database

import (
	"context"

	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/pkg/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewConnection(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return mysql.NewConnection(context.Background(), cfg.Database, logger)
}
