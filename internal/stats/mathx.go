package stats

import (
	"math"
	"time"
)

// roundHalfUp 与前端 Math.round 保持一致：.5 向正无穷方向取整
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

func percentOf(part, total float64) int64 {
	if total == 0 {
		return 0
	}
	return roundHalfUp(part / total * 100)
}

func clipPercent(p int64) int64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
