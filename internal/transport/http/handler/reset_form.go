package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-contacts-api/internal/transport/http/response"
)

//go:embed templates/reset_password_form.html
var formFS embed.FS

var resetForm = template.Must(template.ParseFS(formFS, "templates/reset_password_form.html"))

// ResetPasswordForm 渲染重置邮件里的链接：表单带着 token 提交到 change_password
func ResetPasswordForm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		resp.Abort(c, http.StatusUnprocessableEntity, "token is required")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Referrer-Policy", "no-referrer")
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := resetForm.Execute(c.Writer, struct{ Token string }{token}); err != nil {
		_ = c.Error(err)
	}
}
