package handlercatalog

import (
	"net/http"

	"github.com/yusufsyaifudin/ngundang/internal/svc/catalogsvc"
	"github.com/yusufsyaifudin/ngundang/internal/svc/composesvc"
	"github.com/yusufsyaifudin/ngundang/pkg/respbuilder"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
	"github.com/yusufsyaifudin/ngundang/transport/restapi/httptyped"
)

type HandlerConfig struct {
	Catalog  *catalogsvc.Catalog  `validate:"required"`
	Composer *composesvc.Composer `validate:"required"`
}

type Handler struct {
	Config HandlerConfig
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	err := validator.Validate(cfg)
	if err != nil {
		return nil, err
	}

	return &Handler{Config: cfg}, nil
}

type ListCategoriesResp struct {
	Categories      []httptyped.CategoryEntity `json:"categories"`
	Warning         string                     `json:"warning,omitempty"`
	Templates       []string                   `json:"templates"`
	DefaultTemplate string                     `json:"default_template"`
}

// ListCategories returns every category in catalog order.
// When the catalog failed to load, categories is empty and warning tells why.
// Path     : GET /api/v1/categories
// Response : ListCategoriesResp
func (h *Handler) ListCategories() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		categories := make([]httptyped.CategoryEntity, 0)
		for _, category := range h.Config.Catalog.Categories() {
			categories = append(categories, httptyped.CategoryEntityFromSvc(category))
		}

		respBody := ListCategoriesResp{
			Categories:      categories,
			Templates:       h.Config.Composer.Names(),
			DefaultTemplate: h.Config.Composer.DefaultTemplate(),
		}

		if warning := h.Config.Catalog.Warning(); warning != nil {
			respBody.Warning = warning.Error()
		}

		respbuilder.WriteSuccess(w, r, respBody)
	}
}
