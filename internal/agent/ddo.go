package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Service 描述 DDO 中声明的一个服务端点。
type Service struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// DDO 是 DID 文档。Raw 保留原始文本以便原样转发。
type DDO struct {
	Context string    `json:"@context,omitempty"`
	ID      string    `json:"id"`
	Created string    `json:"created,omitempty"`
	Service []Service `json:"service,omitempty"`

	Raw string `json:"-"`
}

// ParseDDO 解析 DDO 文本。
func ParseDDO(text string) (*DDO, error) {
	var doc DDO
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("解析 DDO 失败: %w", err)
	}
	doc.Raw = text
	return &doc, nil
}

// ServiceEndpoint 返回第一个类型匹配的服务地址，不区分大小写。
func (d *DDO) ServiceEndpoint(serviceType string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, svc := range d.Service {
		if strings.EqualFold(svc.Type, serviceType) {
			return svc.ServiceEndpoint, true
		}
	}
	return "", false
}
