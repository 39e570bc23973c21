package std

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	LAYOUT_DATE_TIME = time.RFC3339
	LAYOUT_DATE      = "2006-01-02"
	layoutLocal      = "2006-01-02 15:04:05"
)

var timeLayouts = [...]string{
	time.RFC3339Nano,
	time.RFC3339,
	layoutLocal,
	LAYOUT_DATE,
}

// ParseTime 解析时间,支持 RFC3339、本地时间格式、日期与秒/毫秒时间戳
func ParseTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case int:
		return fromUnix(int64(v))
	case int64:
		return fromUnix(v)
	case float64:
		return fromUnix(int64(v))
	case string:
		token := strings.TrimSpace(v)
		if unix, err := strconv.ParseInt(token, 10, 64); err == nil {
			return fromUnix(unix)
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, token, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("时间格式不正确: %s", token)
	}
	return time.Time{}, fmt.Errorf("不支持的时间类型: %T", value)
}

// ParseDate 解析日期,只接受 yyyy-MM-dd
func ParseDate(value any) (time.Time, error) {
	if t, ok := value.(time.Time); ok {
		return t, nil
	}
	s, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("不支持的日期类型: %T", value)
	}
	t, err := time.ParseInLocation(LAYOUT_DATE, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式不正确: %s", s)
	}
	return t, nil
}

// FormatDateTime 格式化为 RFC3339
func FormatDateTime(t time.Time) string {
	return t.Format(LAYOUT_DATE_TIME)
}

// FormatDate 格式化为 yyyy-MM-dd
func FormatDate(t time.Time) string {
	return t.Format(LAYOUT_DATE)
}

func fromUnix(unix int64) (time.Time, error) {
	// 兼容秒/毫秒时间戳
	const maxUnixMilli = int64(253402300799999)
	const maxUnixSec = int64(253402300799)
	if unix > 1e12 {
		if unix > maxUnixMilli {
			return time.Time{}, fmt.Errorf("时间戳过大: %d", unix)
		}
		return time.UnixMilli(unix), nil
	}
	if unix > maxUnixSec {
		return time.Time{}, fmt.Errorf("时间戳过大: %d", unix)
	}
	return time.Unix(unix, 0), nil
}
