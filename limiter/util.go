package limiter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// 解析 period 字符串，返回 time.Duration 和 int
func ParsePeriod(period string) (time.Duration, int, error) {
	var unit time.Duration

	// 去除字符串中的空格
	period = strings.TrimSpace(period)

	// 获取数字部分
	var numStr string
	var unitStr string
	for i, char := range period {
		if char >= '0' && char <= '9' {
			numStr += string(char)
		} else {
			unitStr = period[i:]
			break
		}
	}
	// 解析数字部分
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, 0, err
	}
	// 解析时间单位部分
	switch strings.ToLower(unitStr) {
	case "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	default:
		return 0, 0, fmt.Errorf("unsupported time unit: %s", unitStr)
	}
	return unit, num, nil
}

// NewPeriodLimiter 按 "周期内允许 times 次" 构造限流器, 突发额度即 times
func NewPeriodLimiter(period string, times int) (*rate.Limiter, error) {
	unit, num, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	window := unit * time.Duration(num)
	if window <= 0 || times <= 0 {
		return nil, fmt.Errorf("invalid period limit: %s x %d", period, times)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(times)), times), nil
}
