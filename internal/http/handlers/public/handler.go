package public

import "github.com/b2b-portale/internal/provider"

// Handler 前台接口处理器入口
// 说明：该处理器用于公开目录、客户端与合作商端 API。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
