package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-contacts-api/internal/domain"
	"go-contacts-api/internal/repo"
	"go-contacts-api/internal/service"
	httpez "go-contacts-api/internal/transport/http/ez"
	mdw "go-contacts-api/internal/transport/http/middleware"
)

const defaultPageLimit = 100

type pageQ struct {
	Skip  int `form:"skip"  binding:"gte=0"`
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=1000"`
}

func (p pageQ) limit() int {
	if p.Limit == 0 {
		return defaultPageLimit
	}
	return p.Limit
}

// contactModule 需要登录；所有操作都限定在当前用户名下
type contactModule struct{ d Deps }

func (contactModule) Priority() int { return 20 }

func contacts(tx *gorm.DB) *service.ContactService {
	return service.NewContactService(repo.NewContactRepo(tx))
}

func (m contactModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/contacts", mdw.AuthJWT(m.d.Tokens, m.d.loadUser(), m.d.Log))
	ez := httpez.New(g, m.d.DB, m.d.Log)

	httpez.RegisterAction(ez, httpez.Action[pageQ, []domain.Contact]{
		Method: http.MethodGet,
		Path:   "",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *pageQ) ([]domain.Contact, error) {
			return nonNil(contacts(tx).List(c.Request.Context(), httpez.MustUser(c), in.Skip, in.limit()))
		},
	})

	type searchQ struct {
		pageQ
		Text string `form:"text" binding:"required,max=100"`
	}
	httpez.RegisterAction(ez, httpez.Action[searchQ, []domain.Contact]{
		Method: http.MethodGet,
		Path:   "/search",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *searchQ) ([]domain.Contact, error) {
			return nonNil(contacts(tx).Search(c.Request.Context(), httpez.MustUser(c), in.Text, in.Skip, in.limit()))
		},
	})

	type birthdaysIn struct {
		Days int `json:"days" binding:"required,gte=1,lte=31"`
	}
	httpez.RegisterAction(ez, httpez.Action[birthdaysIn, []domain.Contact]{
		Method: http.MethodPost,
		Path:   "/birthdays",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *birthdaysIn) ([]domain.Contact, error) {
			return nonNil(contacts(tx).Birthdays(c.Request.Context(), httpez.MustUser(c), in.Days))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.Contact]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.Contact, error) {
			id, err := httpez.ParamUint(c, "id")
			if err != nil {
				return nil, err
			}
			return contacts(tx).Get(c.Request.Context(), httpez.MustUser(c), id)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[domain.ContactFields, *domain.Contact]{
		Method: http.MethodPost,
		Path:   "",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *domain.ContactFields) (*domain.Contact, error) {
			return contacts(tx).Create(c.Request.Context(), httpez.MustUser(c), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[domain.ContactFields, *domain.Contact]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *domain.ContactFields) (*domain.Contact, error) {
			id, err := httpez.ParamUint(c, "id")
			if err != nil {
				return nil, err
			}
			return contacts(tx).Update(c.Request.Context(), httpez.MustUser(c), id, *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.Contact]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: httpez.BindNone,
		Status: http.StatusNoContent,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.Contact, error) {
			id, err := httpez.ParamUint(c, "id")
			if err != nil {
				return nil, err
			}
			return contacts(tx).Delete(c.Request.Context(), httpez.MustUser(c), id)
		},
	})
}

// nonNil 保证空列表序列化成 [] 而不是 null
func nonNil(cs []domain.Contact, err error) ([]domain.Contact, error) {
	if err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []domain.Contact{}
	}
	return cs, nil
}
