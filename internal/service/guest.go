package service

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SerializeUserAgent 把UA序列化成JSON字符串（带引号），失败就退化成空串
// 游客身份只是个展示标签，序列化挂了也绝不能挡住发评论
func SerializeUserAgent(ua string) string {
	body, err := json.Marshal(ua)
	if err != nil {
		return ""
	}
	return string(body)
}

// GuestDisplayName 给未登录的评论者算一个稳定的假名："void-" + md5("{地址}-{序列化UA}")的前5位十六进制
// 这不是强身份！纯粹是个方便展示的标签，两个不同的游客撞出同一个名字完全允许，不需要任何唯一性保证
func GuestDisplayName(addr, ua string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%s", addr, SerializeUserAgent(ua))))
	return "void-" + hex.EncodeToString(sum[:])[:5]
}
