package rules

import "github.com/sakialabs/makana/internal/db"

// WeekStats 汇总一周内的会话与打卡数据，作为规则引擎的唯一输入
type WeekStats struct {
	SessionsCompleted    int
	SessionsAbandoned    int
	SessionsWithNextStep int
	DailyChecksCompleted int
}

// 规则引擎产出的固定文案
const (
	InsightCleanStops           = "Clean stops this week."
	InsightContinuity           = "Continuity maintained."
	ReducedModeRecommendation   = "Consider activating Reduced Mode for continuity."
	reducedModeDurationPercent  = 60
	minWeeklyDailyChecks        = 3
	continuityInsightThreshold  = 4
)

// SessionDuration 根据配置与减量模式计算会话时长（分钟）。
// 减量模式下压缩到默认时长的 60%，向零取整。
func SessionDuration(setup db.Setup, reducedMode bool) int {
	if reducedMode {
		return setup.DefaultDurationMinutes * reducedModeDurationPercent / 100
	}
	return setup.DefaultDurationMinutes
}

// ShouldRecommendReducedMode 判断是否建议开启减量模式。
// 完成率低于 50% 或一周打卡少于 3 次，任一条件命中即建议。
func ShouldRecommendReducedMode(stats WeekStats) bool {
	total := stats.SessionsCompleted + stats.SessionsAbandoned
	if total > 0 && stats.SessionsCompleted*2 < total {
		return true
	}

	return stats.DailyChecksCompleted < minWeeklyDailyChecks
}

// GenerateInsight 从一周数据中产出至多一条洞察，按固定优先级取首个命中。
// 返回空字符串表示本周无洞察。
func GenerateInsight(stats WeekStats) string {
	// 80% 以上的完成会话留下了 next step
	if stats.SessionsCompleted > 0 && stats.SessionsWithNextStep*5 >= stats.SessionsCompleted*4 {
		return InsightCleanStops
	}

	if stats.SessionsCompleted >= continuityInsightThreshold {
		return InsightContinuity
	}

	return ""
}
