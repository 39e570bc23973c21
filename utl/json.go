package utl

import (
	jsoniter "github.com/json-iterator/go"
)

// 使用项目标准的json序列化
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON 返回项目统一的json实例
func JSON() jsoniter.API {
	return json
}

// UnmarshalJSON 解析JSON数据
func UnmarshalJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// MarshalJSON 序列化为JSON
func MarshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
