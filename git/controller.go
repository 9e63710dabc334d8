package git

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/gitplugin/cron"
	"github.com/gocrud/gitplugin/di"
)

// StatusController 在诊断接口上暴露仓库状态
type StatusController struct {
	status    *StatusService
	scheduler *cron.Scheduler
}

func init() {
	di.Describe[*StatusController](di.Method("Inject", "status", "scheduler,?"))
}

// Inject 注入方法，没有调度器时直接刷新
func (c *StatusController) Inject(status *StatusService, scheduler *cron.Scheduler) {
	c.status = status
	c.scheduler = scheduler
}

func (c *StatusController) MountRoutes(router gin.IRouter) {
	g := router.Group("/git")
	g.GET("/status", c.get)
	g.POST("/refresh", c.refresh)
}

func (c *StatusController) get(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.status.Snapshot())
}

func (c *StatusController) refresh(ctx *gin.Context) {
	var err error
	if c.scheduler != nil {
		err = c.scheduler.RunNow(ctx.Request.Context(), RefreshJobName)
	} else {
		_, err = c.status.Refresh(ctx.Request.Context())
	}
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, c.status.Snapshot())
}
