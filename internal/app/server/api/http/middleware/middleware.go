package middleware

import (
	"github.com/danielgtaylor/huma/v2"
)

// Container accumulates the middleware chain for one handler package and
// hands it over in registration order.
type Container struct {
	middlewares huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.middlewares = append(c.middlewares, mw)
}

// GetAllAndClear returns the accumulated chain and resets the container so
// the next handler package starts from a clean slate.
func (c *Container) GetAllAndClear() huma.Middlewares {
	mws := c.middlewares
	c.middlewares = nil
	return mws
}
