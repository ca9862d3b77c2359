package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gametrack_v1_202601/internal/service"
)

// ==================== WeeklyResetTask 周常重置任务 ====================

// 默认每周一凌晨 4 点重置（带秒字段的 cron 表达式）
const DefaultResetSpec = "0 0 4 * * 1"

// WeeklyResetTask 周常进度重置定时任务
// 只是 ProgressService.ResetWeeklyProgress 的周期性调用方，不包含业务逻辑
type WeeklyResetTask struct {
	progressSvc *service.ProgressService
	cron        *cron.Cron
	spec        string
	logger      *zap.Logger
}

// NewWeeklyResetTask 创建周常重置任务
func NewWeeklyResetTask(progressSvc *service.ProgressService, spec string, logger *zap.Logger) *WeeklyResetTask {
	if spec == "" {
		spec = DefaultResetSpec
	}
	return &WeeklyResetTask{
		progressSvc: progressSvc,
		cron:        cron.New(cron.WithSeconds()),
		spec:        spec,
		logger:      logger,
	}
}

// Start 启动定时任务
func (t *WeeklyResetTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, t.runOnce)
	if err != nil {
		return err
	}
	t.cron.Start()
	t.logger.Info("周常重置任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止定时任务
func (t *WeeklyResetTask) Stop() {
	t.cron.Stop()
}

// RunNow 立即执行一次重置，给运维手动触发用
func (t *WeeklyResetTask) RunNow() {
	t.runOnce()
}

func (t *WeeklyResetTask) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	affected, err := t.progressSvc.ResetWeeklyProgress(ctx)
	if err != nil {
		t.logger.Error("周常重置失败", zap.Error(err))
		return
	}
	t.logger.Info("周常重置完成", zap.Int64("affected", affected))
}
