package delivery

import (
	"fmt"
	"log"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/crm-pipeline/internal/domain"
)

// Renderer personalizes campaign message text per customer using Liquid
// templates, e.g. "Hi {{ name | default: \"there\" }}, here's 10% off!".
// Rendering is lax: a template that fails to parse or render falls back
// to the raw message so delivery is never blocked by bad syntax.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // template text -> *liquid.Template
}

// NewRenderer creates a renderer with the CRM filter set registered.
func NewRenderer() *Renderer {
	engine := liquid.NewEngine()

	// {{ name | default: "there" }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	return &Renderer{engine: engine}
}

// Render expands the message for one customer.
func (r *Renderer) Render(message string, c domain.Customer) string {
	tpl, err := r.parse(message)
	if err != nil {
		log.Printf("[Renderer] parse error, sending raw message: %v", err)
		return message
	}

	out, err := tpl.RenderString(map[string]interface{}{
		"name":        c.Name,
		"email":       c.Email,
		"total_spend": c.TotalSpend,
		"visit_count": c.VisitCount,
	})
	if err != nil {
		log.Printf("[Renderer] render error, sending raw message: %v", err)
		return message
	}
	return out
}

func (r *Renderer) parse(message string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(message); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := r.engine.ParseString(message)
	if err != nil {
		return nil, err
	}
	r.cache.Store(message, tpl)
	return tpl, nil
}
