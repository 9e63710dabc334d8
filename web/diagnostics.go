package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/gitplugin/core"
	"github.com/gocrud/gitplugin/di"
	"github.com/gocrud/gitplugin/logging"
)

// diagnostics 内置的诊断路由
type diagnostics struct {
	runtime *core.Runtime
	logs    *logging.MemoryLoggerProvider
}

func (d *diagnostics) MountRoutes(router gin.IRouter) {
	router.GET("/healthz", d.health)
	router.GET("/bindings", d.bindings)
	router.GET("/windows", d.windows)
	router.GET("/windows/:id/bindings", d.windowBindings)
	router.GET("/logs", d.recentLogs)
}

func (d *diagnostics) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": d.runtime.Environment.Name(),
	})
}

func (d *diagnostics) bindings(c *gin.Context) {
	var infos []di.BindingInfo
	_ = d.runtime.MainThread.Do(func() error {
		infos = d.runtime.Registry.Bindings()
		return nil
	})
	c.JSON(http.StatusOK, infos)
}

func (d *diagnostics) windows(c *gin.Context) {
	c.JSON(http.StatusOK, d.runtime.Windows())
}

func (d *diagnostics) windowBindings(c *gin.Context) {
	id := c.Param("id")
	child, ok := d.runtime.Window(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "window not found", "window": id})
		return
	}

	var infos []di.BindingInfo
	_ = d.runtime.MainThread.Do(func() error {
		infos = child.Bindings()
		return nil
	})
	c.JSON(http.StatusOK, infos)
}

// recentLogs 支持 ?level=warn 过滤
func (d *diagnostics) recentLogs(c *gin.Context) {
	if d.logs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "log capture is disabled"})
		return
	}
	level := logging.LogLevelTrace
	if q := c.Query("level"); q != "" {
		level = logging.ParseLevel(q)
	}
	entries := d.logs.Filter(level)
	if entries == nil {
		entries = []logging.LogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
