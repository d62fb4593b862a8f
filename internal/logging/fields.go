package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ContentFields 提供内容键/缓存后端/命中状态字段，供内容解析日志复用。
func ContentFields(key, backend string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"content_key":   key,
		"cache_backend": backend,
		"cache_hit":     cacheHit,
	}
}

// RequestFields 记录页面请求的基础信息。
func RequestFields(requestID, method, path string, status int) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
	}
}
