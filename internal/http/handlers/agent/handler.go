package agent

import "github.com/firesales-next/internal/provider"

// Handler 代理端接口处理器入口
// 说明：该处理器仅用于销售代理侧 API。
type Handler struct {
	*provider.Container
}

// New 创建代理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
