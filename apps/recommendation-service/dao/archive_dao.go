package dao

import (
	"context"
	"fmt"
	"time"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/database"
)

// postgresArchiveDAO ArchiveDAO的PostgreSQL实现
type postgresArchiveDAO struct {
	db *database.PostgreSQL
}

// NewArchiveDAO 创建交互归档DAO
func NewArchiveDAO(db *database.PostgreSQL) ArchiveDAO {
	return &postgresArchiveDAO{db: db}
}

// CreateRecord 写入一条交互归档记录
func (d *postgresArchiveDAO) CreateRecord(ctx context.Context, record *model.InteractionRecord) error {
	if err := d.db.GetDB().WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("写入交互归档失败: %v", err)
	}
	return nil
}

// GetUserStats 按交互类型统计用户的归档交互数量
func (d *postgresArchiveDAO) GetUserStats(ctx context.Context, userID string) (map[string]int64, error) {
	type row struct {
		InteractionType string
		Count           int64
	}

	var rows []row
	err := d.db.GetDB().WithContext(ctx).
		Model(&model.InteractionRecord{}).
		Select("interaction_type, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("interaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计交互归档失败: %v", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.InteractionType] = r.Count
	}
	return stats, nil
}

// CleanOldRecords 清理指定时间之前的归档记录，返回删除条数
func (d *postgresArchiveDAO) CleanOldRecords(ctx context.Context, before time.Time) (int64, error) {
	result := d.db.GetDB().WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&model.InteractionRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理交互归档失败: %v", result.Error)
	}
	return result.RowsAffected, nil
}
