package stats

import "time"

// AdvanceStreak 结束一次会话后更新计数器。
// 同一本地自然日内不变，紧接上一个自然日 +1，否则重新从 1 开始。
func AdvanceStreak(c UserCounters, lastSession *time.Time, closedAt time.Time, loc *time.Location) UserCounters {
	loc = locOrLocal(loc)
	c.TotalSessions++

	today := civilDay(closedAt.In(loc))
	switch {
	case lastSession == nil:
		c.CurrentStreak = 1
	default:
		last := civilDay(lastSession.In(loc))
		switch {
		case last.Equal(today):
			if c.CurrentStreak == 0 {
				c.CurrentStreak = 1
			}
		case last.AddDate(0, 0, 1).Equal(today):
			c.CurrentStreak++
		default:
			c.CurrentStreak = 1
		}
	}
	if c.CurrentStreak > c.LongestStreak {
		c.LongestStreak = c.CurrentStreak
	}
	return c
}

// StreakCutoff 早于该时刻的最后一次会话意味着连续天数已中断
func StreakCutoff(now time.Time, loc *time.Location) time.Time {
	loc = locOrLocal(loc)
	return civilDay(now.In(loc)).AddDate(0, 0, -1)
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
